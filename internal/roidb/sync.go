// Package roidb turns per-image scene graphs into the encoded region-of-interest
// database: box filtering and merging, vocabulary construction, box and
// relationship encoding, and train/val/test splits.
package roidb

import (
	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
)

// SyncObjects adds relationship endpoints that are missing from their image's
// objects. Only endpoints that carry a name can be added; each missing id is
// added once. It returns the number of objects added.
func SyncObjects(graphs []models.SceneGraph) int {
	added := 0
	for gi := range graphs {
		g := &graphs[gi]
		ids := g.ObjectIDs()
		for _, rel := range g.Relationships {
			for _, ep := range []models.Endpoint{rel.Subject, rel.Object} {
				if ids[ep.ObjectID] || ep.Name == "" {
					continue
				}
				g.Objects = append(g.Objects, models.Object{
					ObjectID: ep.ObjectID,
					IDs:      []int{ep.ObjectID},
					Names:    []string{ep.Name},
					X:        ep.X,
					Y:        ep.Y,
					W:        ep.W,
					H:        ep.H,
				})
				ids[ep.ObjectID] = true
				added++
			}
		}
	}
	return added
}

type CrossCheckReport struct {
	Correct int
	Total   int
}

// CrossCheck counts relationships whose subject and object both exist among
// their image's objects.
func CrossCheck(graphs []models.SceneGraph) CrossCheckReport {
	var report CrossCheckReport
	for gi := range graphs {
		ids := graphs[gi].ObjectIDs()
		for _, rel := range graphs[gi].Relationships {
			if ids[rel.Subject.ObjectID] && ids[rel.Object.ObjectID] {
				report.Correct++
			}
			report.Total++
		}
	}
	return report
}
