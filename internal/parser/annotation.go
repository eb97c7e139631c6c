// Package parser reads the converter's inputs: image metadata, VrR-VG XML
// annotations, alias and vocabulary lists, and existing dictionary files.
package parser

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
	"golang.org/x/sync/errgroup"
)

type bndBoxXML struct {
	XMin *int `xml:"xmin"`
	YMin *int `xml:"ymin"`
	XMax *int `xml:"xmax"`
	YMax *int `xml:"ymax"`
}

type objectXML struct {
	Name     *string    `xml:"name"`
	ObjectID *int       `xml:"object_id"`
	BndBox   *bndBoxXML `xml:"bndbox"`
}

type relationXML struct {
	SubjectID *int    `xml:"subject_id"`
	ObjectID  *int    `xml:"object_id"`
	Predicate *string `xml:"predicate"`
}

type annotationXML struct {
	Objects   []objectXML   `xml:"object"`
	Relations []relationXML `xml:"relation"`
}

// toObject checks the required elements of the i-th <object>.
func (o objectXML) toObject(imageID, i int) (models.Object, error) {
	if o.ObjectID == nil {
		return models.Object{}, fmt.Errorf("image %d: object %d missing object_id", imageID, i)
	}
	id := *o.ObjectID
	if o.Name == nil {
		return models.Object{}, fmt.Errorf("image %d: object %d missing name", imageID, id)
	}
	box := o.BndBox
	if box == nil {
		return models.Object{}, fmt.Errorf("image %d: object %d missing bndbox", imageID, id)
	}
	for _, c := range []struct {
		name  string
		value *int
	}{{"xmin", box.XMin}, {"ymin", box.YMin}, {"xmax", box.XMax}, {"ymax", box.YMax}} {
		if c.value == nil {
			return models.Object{}, fmt.Errorf("image %d: object %d missing bndbox %s", imageID, id, c.name)
		}
	}
	return models.Object{
		ObjectID: id,
		IDs:      []int{id},
		Names:    []string{strings.TrimSpace(*o.Name)},
		X:        *box.XMin,
		Y:        *box.YMin,
		W:        *box.XMax - *box.XMin,
		H:        *box.YMax - *box.YMin,
	}, nil
}

// toRelationship checks the required elements of the i-th <relation>.
func (r relationXML) toRelationship(imageID, i int) (models.Relationship, error) {
	switch {
	case r.SubjectID == nil:
		return models.Relationship{}, fmt.Errorf("image %d: relation %d missing subject_id", imageID, i)
	case r.ObjectID == nil:
		return models.Relationship{}, fmt.Errorf("image %d: relation %d missing object_id", imageID, i)
	case r.Predicate == nil:
		return models.Relationship{}, fmt.Errorf("image %d: relation %d missing predicate", imageID, i)
	}
	return models.Relationship{
		Subject:   models.Endpoint{ObjectID: *r.SubjectID},
		Object:    models.Endpoint{ObjectID: *r.ObjectID},
		Predicate: strings.TrimSpace(*r.Predicate),
	}, nil
}

// ParseAnnotation decodes one VrR-VG annotation. Boxes are stored as top-left
// corner plus width and height. Every object needs name, object_id and a full
// bndbox; every relation needs subject_id, object_id and predicate.
func ParseAnnotation(r io.Reader, imageID int) (*models.SceneGraph, error) {
	var data annotationXML
	if err := xml.NewDecoder(r).Decode(&data); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty annotation for image %d", imageID)
		}
		return nil, fmt.Errorf("failed to decode annotation for image %d: %w", imageID, err)
	}

	graph := &models.SceneGraph{
		ImageID:       imageID,
		Objects:       make([]models.Object, 0, len(data.Objects)),
		Relationships: make([]models.Relationship, 0, len(data.Relations)),
	}
	for i, raw := range data.Objects {
		obj, err := raw.toObject(imageID, i)
		if err != nil {
			return nil, err
		}
		graph.Objects = append(graph.Objects, obj)
	}
	for i, raw := range data.Relations {
		rel, err := raw.toRelationship(imageID, i)
		if err != nil {
			return nil, err
		}
		graph.Relationships = append(graph.Relationships, rel)
	}
	return graph, nil
}

// AnnotationFile returns <dir>/<imageID>.xml.
func AnnotationFile(dir string, imageID int) string {
	return filepath.Join(dir, strconv.Itoa(imageID)+".xml")
}

// LoadAnnotation reads the annotation of a single image from dir.
func LoadAnnotation(dir string, imageID int) (*models.SceneGraph, error) {
	fi, err := os.Open(AnnotationFile(dir, imageID))
	if err != nil {
		return nil, err
	}
	defer fi.Close()

	return ParseAnnotation(fi, imageID)
}

// LoadAnnotations reads the annotations of all images using at most workers
// concurrent readers. The result is in the order of imageIDs. The first
// failure cancels the remaining reads.
func LoadAnnotations(ctx context.Context, dir string, imageIDs []int, workers int) ([]models.SceneGraph, error) {
	if workers < 1 {
		workers = 1
	}
	graphs := make([]models.SceneGraph, len(imageIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range imageIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			graph, err := LoadAnnotation(dir, id)
			if err != nil {
				return fmt.Errorf("failed to load annotation: %w", err)
			}
			graphs[i] = *graph
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return graphs, nil
}

// CollectTokens returns the sorted sets of object names and predicates that
// appear in the graphs.
func CollectTokens(graphs []models.SceneGraph) (objects, predicates []string) {
	objSet := make(map[string]bool)
	predSet := make(map[string]bool)
	for _, g := range graphs {
		for _, obj := range g.Objects {
			for _, name := range obj.Names {
				objSet[name] = true
			}
		}
		for _, rel := range g.Relationships {
			predSet[rel.Predicate] = true
		}
	}
	return sortedKeys(objSet), sortedKeys(predSet)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
