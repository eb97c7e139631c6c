// Package models defines the scene graph and region-of-interest database types
// shared by the parser, the ROIDB builder and the HDF5 layer.
package models

const (
	SplitTrain int32 = 0
	SplitVal   int32 = 1
	SplitTest  int32 = 2
)

// NoEntry marks an image with no boxes or no relationships in the
// img_to_first_* / img_to_last_* ranges.
const NoEntry int32 = -1

// ROIDB holds the encoded datasets written to the output HDF5 file.
// Boxes is keyed by the long side the boxes were scaled to; each box is
// center x, center y, width, height.
type ROIDB struct {
	Labels        []int32
	Boxes         map[int][][4]int32
	ImgToFirstBox []int32
	ImgToLastBox  []int32

	Predicates    []int32
	Relationships [][2]int32
	ImgToFirstRel []int32
	ImgToLastRel  []int32

	Split []int32
}

type Dicts struct {
	LabelToIdx     map[string]int `json:"label_to_idx"`
	IdxToLabel     map[int]string `json:"idx_to_label"`
	PredicateToIdx map[string]int `json:"predicate_to_idx"`
	IdxToPredicate map[int]string `json:"idx_to_predicate"`
	PredicateCount map[string]int `json:"predicate_count"`
	ObjectCount    map[string]int `json:"object_count"`
}
