package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
	"github.com/kuanghuei/scene-graph-TF-release/internal/parser"
	"github.com/kuanghuei/scene-graph-TF-release/internal/roidb"
	"github.com/rs/zerolog/log"
)

// MaxAnnotationSize bounds the request body of /parse.
const MaxAnnotationSize = 4 << 20

var parsedAnnotations atomic.Int64

// ParseHandler decodes a VrR-VG XML annotation posted as the request body
// and responds with its scene graph. Query parameters:
//
//	image_id   id stored in the graph (default 0)
//	normalize  "true" lowercases and strips punctuation from names
//	pretty     "true" indents the JSON
func ParseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	imageID := 0
	if raw := query.Get("image_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid image_id: "+raw, http.StatusBadRequest)
			return
		}
		imageID = id
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxAnnotationSize))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	graph, err := parser.ParseAnnotation(bytes.NewReader(body), imageID)
	if err != nil {
		http.Error(w, "Invalid annotation: "+err.Error(), http.StatusBadRequest)
		return
	}
	if query.Get("normalize") == "true" {
		graphs := []models.SceneGraph{*graph}
		roidb.PreprocessLabels(graphs, nil, nil)
		graph = &graphs[0]
	}
	parsedAnnotations.Add(1)

	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	if query.Get("pretty") == "true" {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(graph); err != nil {
		log.Error().Err(err).Int("image_id", imageID).Msg("failed to encode scene graph")
	}
}
