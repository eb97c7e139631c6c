package roidb

import (
	"sort"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
)

// Vocabulary maps tokens to 1-based indices. Counts holds how often each
// token occurred in the data the vocabulary was built from.
type Vocabulary struct {
	TokenToIdx map[string]int
	IdxToToken map[int]string
	Counts     map[string]int
}

func allowSet(allowed []string) map[string]bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, token := range allowed {
		set[token] = true
	}
	return set
}

// ExtractObjectTokens counts object names. When allowed is non-empty only
// names in it are counted.
func ExtractObjectTokens(graphs []models.SceneGraph, allowed []string) map[string]int {
	allow := allowSet(allowed)
	counts := make(map[string]int)
	for _, g := range graphs {
		for _, obj := range g.Objects {
			for _, name := range obj.Names {
				if allow == nil || allow[name] {
					counts[name]++
				}
			}
		}
	}
	return counts
}

// ExtractPredicateTokens counts relationship predicates. When allowed is
// non-empty only predicates in it are counted.
func ExtractPredicateTokens(graphs []models.SceneGraph, allowed []string) map[string]int {
	allow := allowSet(allowed)
	counts := make(map[string]int)
	for _, g := range graphs {
		for _, rel := range g.Relationships {
			if allow == nil || allow[rel.Predicate] {
				counts[rel.Predicate]++
			}
		}
	}
	return counts
}

// BuildTokenDict numbers tokens from 1 in sorted order.
func BuildTokenDict(tokens []string) (map[string]int, map[int]string) {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)

	tokenToIdx := make(map[string]int, len(sorted))
	idxToToken := make(map[int]string, len(sorted))
	next := 1
	for _, token := range sorted {
		if _, ok := tokenToIdx[token]; ok {
			continue
		}
		tokenToIdx[token] = next
		idxToToken[next] = token
		next++
	}
	return tokenToIdx, idxToToken
}

// NewVocabulary builds a vocabulary over every counted token.
func NewVocabulary(counts map[string]int) Vocabulary {
	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	tokenToIdx, idxToToken := BuildTokenDict(tokens)
	return Vocabulary{TokenToIdx: tokenToIdx, IdxToToken: idxToToken, Counts: counts}
}

func tokensOf(m map[string]int) []string {
	tokens := make([]string, 0, len(m))
	for token := range m {
		tokens = append(tokens, token)
	}
	return tokens
}
