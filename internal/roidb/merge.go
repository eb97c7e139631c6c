package roidb

import (
	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
)

type overlapKind int

// Ordered by prominence: a merge group takes the highest kind it absorbed.
const (
	noOverlap overlapKind = iota
	sameBox
	insideBox
	overlappingBox
)

// MergeReport counts absorbed boxes by the most prominent overlap kind of
// the group they were merged into.
type MergeReport struct {
	Same        int
	Inside      int
	Overlapping int
}

func (r *MergeReport) add(kind overlapKind, n int) {
	switch kind {
	case sameBox:
		r.Same += n
	case insideBox:
		r.Inside += n
	case overlappingBox:
		r.Overlapping += n
	}
}

// MergeDuplicateBoxes collapses boxes that describe the same object. Within an
// image every object absorbs the later, not yet absorbed objects it overlaps.
// Groups of identical boxes are averaged; groups with a nested or overlapping
// same-name box take the extreme corners.
func MergeDuplicateBoxes(graphs []models.SceneGraph) MergeReport {
	var report MergeReport
	for gi := range graphs {
		objs := graphs[gi].Objects
		n := len(objs)

		kinds := make([]overlapKind, n)
		groups := make([][]int, n)
		for i := 0; i < n; i++ {
			if kinds[i] != noOverlap {
				continue
			}
			for j := i + 1; j < n; j++ {
				if kinds[j] != noOverlap {
					continue
				}
				if kind := overlap(objs[i], objs[j]); kind != noOverlap {
					kinds[j] = kind
					groups[i] = append(groups[i], j)
				}
			}
		}

		merged := make([]models.Object, 0, n)
		for i := 0; i < n; i++ {
			if kinds[i] != noOverlap {
				continue
			}
			obj, prominent := mergeGroup(objs, i, groups[i], kinds)
			report.add(prominent, len(groups[i]))
			merged = append(merged, obj)
		}
		graphs[gi].Objects = merged
	}
	return report
}

func mergeGroup(objs []models.Object, head int, members []int, kinds []overlapKind) (models.Object, overlapKind) {
	obj := objs[head]
	ids := []int{obj.ObjectID}
	names := append([]string(nil), obj.Names...)
	corners := [][4]int{obj.Corners()}
	prominent := sameBox
	for _, j := range members {
		ids = append(ids, objs[j].ObjectID)
		names = append(names, objs[j].Names...)
		corners = append(corners, objs[j].Corners())
		if kinds[j] > prominent {
			prominent = kinds[j]
		}
	}

	var dims [4]float64
	if prominent > sameBox {
		dims = extremeCorners(corners)
	} else {
		dims = meanCorners(corners)
	}

	obj.IDs = ids
	obj.Names = uniqueStrings(names)
	obj.X = int(dims[0])
	obj.Y = int(dims[1])
	obj.W = int(dims[2] - dims[0])
	obj.H = int(dims[3] - dims[1])
	return obj, prominent
}

func overlap(a, b models.Object) overlapKind {
	b1, b2 := a.Corners(), b.Corners()
	ratio := overlapRatio(b1, b2)
	if b1 == b2 || ratio > 0.9 {
		return sameBox
	}
	sameName := len(a.Names) > 0 && len(b.Names) > 0 && a.Names[0] == b.Names[0]
	if sameName && (inside(b1, b2) || inside(b2, b1)) {
		return insideBox
	}
	if sameName && ratio > 0.6 {
		return overlappingBox
	}
	return noOverlap
}

// overlapRatio is the intersection area over the area of the box enclosing
// both inputs. Boxes are x1, y1, x2, y2.
func overlapRatio(b1, b2 [4]int) float64 {
	if b1[2] <= b2[0] || b1[3] <= b2[1] || b1[0] >= b2[2] || b1[1] >= b2[3] {
		return 0
	}
	enclosing := (max(b1[2], b2[2]) - min(b1[0], b2[0])) * (max(b1[3], b2[3]) - min(b1[1], b2[1]))
	intersection := (min(b1[2], b2[2]) - max(b1[0], b2[0])) * (min(b1[3], b2[3]) - max(b1[1], b2[1]))
	return float64(intersection) / float64(enclosing)
}

func inside(b1, b2 [4]int) bool {
	return b1[0] >= b2[0] && b1[1] >= b2[1] && b1[2] <= b2[2] && b1[3] <= b2[3]
}

func meanCorners(corners [][4]int) [4]float64 {
	var sum [4]float64
	for _, c := range corners {
		for k := range c {
			sum[k] += float64(c[k])
		}
	}
	for k := range sum {
		sum[k] /= float64(len(corners))
	}
	return sum
}

func extremeCorners(corners [][4]int) [4]float64 {
	ext := corners[0]
	for _, c := range corners[1:] {
		ext[0] = min(ext[0], c[0])
		ext[1] = min(ext[1], c[1])
		ext[2] = max(ext[2], c[2])
		ext[3] = max(ext[3], c[3])
	}
	return [4]float64{float64(ext[0]), float64(ext[1]), float64(ext[2]), float64(ext[3])}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
