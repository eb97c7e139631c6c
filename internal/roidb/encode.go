package roidb

import (
	"fmt"
	"math"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
)

// DefaultLongSides are the image long-side sizes boxes are encoded for.
var DefaultLongSides = []int{512, 1024}

// EncodeBox scales a 1-indexed top-left box from an image of the given
// original size to an image whose long side is longSide, clamps it to that
// image, and returns it as center x, center y, width, height.
func EncodeBox(obj models.Object, height, width, longSide int) ([4]int32, error) {
	longest := max(height, width)
	if longest <= 0 {
		return [4]int32{}, fmt.Errorf("object %d: invalid image size %dx%d", obj.ObjectID, width, height)
	}
	scale := float64(longSide) / float64(longest)

	x := int(math.Floor(scale * float64(obj.X-1)))
	y := int(math.Floor(scale * float64(obj.Y-1)))
	w := int(math.Ceil(scale * float64(obj.W)))
	h := int(math.Ceil(scale * float64(obj.H)))

	x = max(x, 0)
	y = max(y, 0)

	// at least 2x2 pixels stay inside the image
	x = min(x, longSide-2)
	y = min(y, longSide-2)
	if x+w >= longSide {
		w = longSide - x
	}
	if y+h >= longSide {
		h = longSide - y
	}

	if w <= 0 || h <= 0 {
		return [4]int32{}, fmt.Errorf("object %d: encoded box has non-positive size %dx%d", obj.ObjectID, w, h)
	}
	return [4]int32{int32(x + w/2), int32(y + h/2), int32(w), int32(h)}, nil
}

// ObjectEncoding is the per-box part of the ROIDB. IDToIdx maps, per image,
// every object id (merged ids included) to its box index.
type ObjectEncoding struct {
	Labels   []int32
	Boxes    map[int][][4]int32
	FirstBox []int32
	LastBox  []int32
	IDToIdx  []map[int]int
}

// EncodeObjects labels every object with its most frequent in-vocabulary name
// and encodes its box for each long side. Objects without such a name are
// dropped.
func EncodeObjects(graphs []models.SceneGraph, vocab Vocabulary, heights, widths []int, longSides []int) (*ObjectEncoding, error) {
	if len(heights) < len(graphs) || len(widths) < len(graphs) {
		return nil, fmt.Errorf("image sizes cover %d heights and %d widths, need %d", len(heights), len(widths), len(graphs))
	}

	enc := &ObjectEncoding{
		Boxes:    make(map[int][][4]int32, len(longSides)),
		FirstBox: make([]int32, len(graphs)),
		LastBox:  make([]int32, len(graphs)),
		IDToIdx:  make([]map[int]int, len(graphs)),
	}
	for _, size := range longSides {
		enc.Boxes[size] = nil
	}

	counter := 0
	for i, g := range graphs {
		first := counter
		enc.IDToIdx[i] = make(map[int]int)
		for _, obj := range g.Objects {
			label, ok := pickLabel(obj.Names, vocab)
			if !ok {
				continue
			}
			for _, size := range longSides {
				box, err := EncodeBox(obj, heights[i], widths[i], size)
				if err != nil {
					return nil, fmt.Errorf("image %d: %w", g.ImageID, err)
				}
				enc.Boxes[size] = append(enc.Boxes[size], box)
			}
			enc.Labels = append(enc.Labels, int32(vocab.TokenToIdx[label]))

			ids := obj.IDs
			if len(ids) == 0 {
				ids = []int{obj.ObjectID}
			}
			for _, id := range ids {
				enc.IDToIdx[i][id] = counter
			}
			counter++
		}

		if counter == first {
			enc.FirstBox[i] = models.NoEntry
			enc.LastBox[i] = models.NoEntry
		} else {
			enc.FirstBox[i] = int32(first)
			enc.LastBox[i] = int32(counter - 1)
		}
	}
	return enc, nil
}

func pickLabel(names []string, vocab Vocabulary) (string, bool) {
	label, best := "", 0
	for _, name := range names {
		if _, ok := vocab.TokenToIdx[name]; !ok {
			continue
		}
		if c := vocab.Counts[name]; c > best {
			label, best = name, c
		}
	}
	return label, best > 0
}

type RelationshipReport struct {
	FilteredByObject    int
	FilteredByPredicate int
	FilteredByDuplicate int
	Kept                int
	ImagesWithRelations int
	Images              int
}

// RelationshipEncoding is the per-relationship part of the ROIDB. Pairs hold
// subject and object box indices.
type RelationshipEncoding struct {
	Predicates []int32
	Pairs      [][2]int32
	FirstRel   []int32
	LastRel    []int32
	Report     RelationshipReport
}

// EncodeRelationships encodes relationships between encoded boxes. It must run
// after EncodeObjects, whose IDToIdx it consumes.
func EncodeRelationships(graphs []models.SceneGraph, predicateToIdx map[string]int, idToIdx []map[int]int) (*RelationshipEncoding, error) {
	if len(idToIdx) < len(graphs) {
		return nil, fmt.Errorf("object index covers %d images, need %d", len(idToIdx), len(graphs))
	}

	enc := &RelationshipEncoding{
		FirstRel: make([]int32, len(graphs)),
		LastRel:  make([]int32, len(graphs)),
	}
	counter := 0
	for i, g := range graphs {
		first := counter
		index := idToIdx[i]
		for _, rel := range g.Relationships {
			sub, subOK := index[rel.Subject.ObjectID]
			obj, objOK := index[rel.Object.ObjectID]
			pred, predOK := predicateToIdx[rel.Predicate]
			switch {
			case !subOK || !objOK:
				enc.Report.FilteredByObject++
			case !predOK:
				enc.Report.FilteredByPredicate++
			case sub == obj:
				enc.Report.FilteredByDuplicate++
			default:
				enc.Predicates = append(enc.Predicates, int32(pred))
				enc.Pairs = append(enc.Pairs, [2]int32{int32(sub), int32(obj)})
				counter++
			}
		}

		if counter == first {
			enc.FirstRel[i] = models.NoEntry
			enc.LastRel[i] = models.NoEntry
		} else {
			enc.FirstRel[i] = int32(first)
			enc.LastRel[i] = int32(counter - 1)
			enc.Report.ImagesWithRelations++
		}
	}
	enc.Report.Kept = len(enc.Predicates)
	enc.Report.Images = len(graphs)
	return enc, nil
}
