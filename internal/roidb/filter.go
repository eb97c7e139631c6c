package roidb

import (
	"fmt"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
)

type FilterReport struct {
	Kept  int
	Total int
}

// FilterObjectBoxes drops objects whose box area is not larger than frac of
// the original image area. heights and widths are indexed like graphs.
func FilterObjectBoxes(graphs []models.SceneGraph, heights, widths []int, frac float64) (FilterReport, error) {
	var report FilterReport
	if len(heights) < len(graphs) || len(widths) < len(graphs) {
		return report, fmt.Errorf("image sizes cover %d heights and %d widths, need %d", len(heights), len(widths), len(graphs))
	}

	for i := range graphs {
		area := float64(heights[i] * widths[i])
		kept := graphs[i].Objects[:0]
		for _, obj := range graphs[i].Objects {
			if float64(obj.H*obj.W) > area*frac {
				kept = append(kept, obj)
				report.Kept++
			}
			report.Total++
		}
		graphs[i].Objects = kept
	}
	return report, nil
}
