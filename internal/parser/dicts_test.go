package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDicts(t *testing.T) {
	t.Run("full dicts file", func(t *testing.T) {
		input := []byte(`{
			"label_to_idx": {"horse": 1, "man": 2},
			"idx_to_label": {"1": "horse", "2": "man"},
			"predicate_to_idx": {"riding": 1},
			"idx_to_predicate": {"1": "riding"},
			"predicate_count": {"riding": 3},
			"object_count": {"horse": 2, "man": 4}
		}`)

		dicts, err := ParseDicts(input)
		require.NoError(t, err)
		assert.Equal(t, 2, dicts.LabelToIdx["man"])
		assert.Equal(t, "horse", dicts.IdxToLabel[1])
		assert.Equal(t, "riding", dicts.IdxToPredicate[1])
		assert.Equal(t, 4, dicts.ObjectCount["man"])
	})

	t.Run("rebuilds index to token maps", func(t *testing.T) {
		input := []byte(`{
			"label_to_idx": {"horse": 1, "man": 2},
			"predicate_to_idx": {"riding": 1, "near": 2}
		}`)

		dicts, err := ParseDicts(input)
		require.NoError(t, err)
		assert.Equal(t, map[int]string{1: "horse", 2: "man"}, dicts.IdxToLabel)
		assert.Equal(t, map[int]string{1: "riding", 2: "near"}, dicts.IdxToPredicate)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := ParseDicts(nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "empty dicts data")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseDicts([]byte(`{invalid`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal dicts")
	})

	t.Run("missing labels", func(t *testing.T) {
		_, err := ParseDicts([]byte(`{"predicate_to_idx": {"on": 1}}`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing label_to_idx field")
	})

	t.Run("missing predicates", func(t *testing.T) {
		_, err := ParseDicts([]byte(`{"label_to_idx": {"cat": 1}}`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing predicate_to_idx field")
	})
}
