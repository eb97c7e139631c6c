package parser

import (
	"encoding/json"
	"fmt"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
)

// ParseDicts reads a dictionary file produced by an earlier conversion. The
// index-to-token maps are rebuilt when the file omits them.
func ParseDicts(data []byte) (*models.Dicts, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty dicts data")
	}

	var dicts models.Dicts
	if err := json.Unmarshal(data, &dicts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dicts: %w", err)
	}

	if len(dicts.LabelToIdx) == 0 {
		return nil, fmt.Errorf("invalid dicts: missing label_to_idx field")
	}
	if len(dicts.PredicateToIdx) == 0 {
		return nil, fmt.Errorf("invalid dicts: missing predicate_to_idx field")
	}

	if len(dicts.IdxToLabel) == 0 {
		dicts.IdxToLabel = invert(dicts.LabelToIdx)
	}
	if len(dicts.IdxToPredicate) == 0 {
		dicts.IdxToPredicate = invert(dicts.PredicateToIdx)
	}

	return &dicts, nil
}

func invert(m map[string]int) map[int]string {
	out := make(map[int]string, len(m))
	for token, idx := range m {
		out[idx] = token
	}
	return out
}
