// Package models defines the scene graph and region-of-interest database types
// shared by the parser, the ROIDB builder and the HDF5 layer.
package models

type ImageMeta struct {
	ImageID int    `json:"image_id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	URL     string `json:"url,omitempty"`
	Split   string `json:"split,omitempty"`
}

// ImageDB is the subset of the image database file the converter reads.
// Heights and Widths are the original image sizes, aligned with ImageIDs.
type ImageDB struct {
	NumImages int
	ValidIdx  []int
	ImageIDs  []int
	Heights   []int
	Widths    []int
}

type Object struct {
	ObjectID int      `json:"object_id"`
	IDs      []int    `json:"ids,omitempty"`
	Names    []string `json:"names"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	W        int      `json:"w"`
	H        int      `json:"h"`
}

// Corners returns the box as x1, y1, x2, y2.
func (o Object) Corners() [4]int {
	return [4]int{o.X, o.Y, o.X + o.W, o.Y + o.H}
}

// Endpoint is one side of a relationship. Name and box are only set when the
// source annotation carries the full object inline.
type Endpoint struct {
	ObjectID int    `json:"object_id"`
	Name     string `json:"name,omitempty"`
	X        int    `json:"x,omitempty"`
	Y        int    `json:"y,omitempty"`
	W        int    `json:"w,omitempty"`
	H        int    `json:"h,omitempty"`
}

type Relationship struct {
	Subject   Endpoint `json:"subject"`
	Object    Endpoint `json:"object"`
	Predicate string   `json:"predicate"`
}

type SceneGraph struct {
	ImageID       int            `json:"image_id"`
	Objects       []Object       `json:"objects"`
	Relationships []Relationship `json:"relationships"`
}

// ObjectIDs returns the set of object ids present in the graph.
func (g *SceneGraph) ObjectIDs() map[int]bool {
	ids := make(map[int]bool, len(g.Objects))
	for _, obj := range g.Objects {
		ids[obj.ObjectID] = true
	}
	return ids
}
