package roidb

import (
	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
	"github.com/kuanghuei/scene-graph-TF-release/internal/parser"
)

// PreprocessLabels normalizes every object name and predicate and replaces
// aliased tokens by their targets. Either alias map may be nil.
func PreprocessLabels(graphs []models.SceneGraph, objectAlias, predicateAlias map[string]string) {
	for gi := range graphs {
		g := &graphs[gi]
		for oi := range g.Objects {
			obj := &g.Objects[oi]
			names := make([]string, len(obj.Names))
			for k, name := range obj.Names {
				names[k] = resolveAlias(parser.NormalizePhrase(name), objectAlias)
			}
			obj.Names = names
			obj.IDs = []int{obj.ObjectID}
		}
		for ri := range g.Relationships {
			rel := &g.Relationships[ri]
			rel.Predicate = resolveAlias(parser.NormalizePhrase(rel.Predicate), predicateAlias)
		}
	}
}

func resolveAlias(token string, alias map[string]string) string {
	if target, ok := alias[token]; ok {
		return target
	}
	return token
}
