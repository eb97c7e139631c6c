// Package handlers provides the HTTP handlers of the annotation inspection
// server: a health check and a VrR-VG annotation parser.
package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Uptime    string            `json:"uptime,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

const ServiceName = "vgroidb"

var startTime = time.Now()

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   ServiceName,
		Uptime:    time.Since(startTime).String(),
		Details: map[string]string{
			"go_version":         runtime.Version(),
			"num_cpu":            strconv.Itoa(runtime.NumCPU()),
			"parsed_annotations": strconv.FormatInt(parsedAnnotations.Load(), 10),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
