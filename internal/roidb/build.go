package roidb

import (
	"errors"
	"fmt"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
)

var (
	ErrNoObjects       = errors.New("no objects left to encode")
	ErrNoRelationships = errors.New("no relationships left to encode")
)

type Options struct {
	// MinBoxAreaFrac drops boxes not larger than this fraction of the image
	// area. Zero disables the filter.
	MinBoxAreaFrac float64
	LongSides      []int

	// ObjectTokens and PredicateTokens restrict the vocabulary. Empty allows
	// every token found in the data.
	ObjectTokens    []string
	PredicateTokens []string

	// External replaces the token indices built from the data.
	External *models.Dicts

	// InputSplits holds one split name per image and is used instead of the
	// portion split when UseInputSplit is set.
	InputSplits   []string
	UseInputSplit bool
	Split         SplitOptions
}

type Report struct {
	SyncedObjects    int
	CrossCheck       CrossCheckReport
	BoxFilter        *FilterReport
	Merge            MergeReport
	ObjectTokens     int
	PredicateTokens  int
	Relationships    RelationshipReport
	NumObjects       int
	NumRelationships int
	Train            int
	Val              int
	Test             int
}

type Result struct {
	DB     *models.ROIDB
	Dicts  *models.Dicts
	Report Report
}

// Build runs the full encoding pipeline. graphs, heights and widths are
// indexed by image; graphs are modified in place.
func Build(graphs []models.SceneGraph, heights, widths []int, opts Options) (*Result, error) {
	var report Report
	longSides := opts.LongSides
	if len(longSides) == 0 {
		longSides = DefaultLongSides
	}

	report.SyncedObjects = SyncObjects(graphs)
	report.CrossCheck = CrossCheck(graphs)

	if opts.MinBoxAreaFrac > 0 {
		filter, err := FilterObjectBoxes(graphs, heights, widths, opts.MinBoxAreaFrac)
		if err != nil {
			return nil, fmt.Errorf("failed to filter boxes: %w", err)
		}
		report.BoxFilter = &filter
	}

	report.Merge = MergeDuplicateBoxes(graphs)

	objVocab, predVocab := buildVocabularies(graphs, opts)
	report.ObjectTokens = len(objVocab.Counts)
	report.PredicateTokens = len(predVocab.Counts)

	objects, err := EncodeObjects(graphs, objVocab, heights, widths, longSides)
	if err != nil {
		return nil, fmt.Errorf("failed to encode objects: %w", err)
	}
	if len(objects.Labels) == 0 {
		return nil, ErrNoObjects
	}

	rels, err := EncodeRelationships(graphs, predVocab.TokenToIdx, objects.IDToIdx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode relationships: %w", err)
	}
	if len(rels.Predicates) == 0 {
		return nil, ErrNoRelationships
	}
	report.Relationships = rels.Report
	report.NumObjects = len(objects.Labels)
	report.NumRelationships = len(rels.Predicates)

	var split []int32
	if opts.UseInputSplit {
		if len(opts.InputSplits) < len(graphs) {
			return nil, fmt.Errorf("input splits cover %d images, need %d", len(opts.InputSplits), len(graphs))
		}
		split = EncodeInputSplits(opts.InputSplits[:len(graphs)])
	} else {
		split = EncodeSplits(len(graphs), opts.Split)
	}
	report.Train, report.Val, report.Test = CountSplits(split)

	db := &models.ROIDB{
		Labels:        objects.Labels,
		Boxes:         objects.Boxes,
		ImgToFirstBox: objects.FirstBox,
		ImgToLastBox:  objects.LastBox,
		Predicates:    rels.Predicates,
		Relationships: rels.Pairs,
		ImgToFirstRel: rels.FirstRel,
		ImgToLastRel:  rels.LastRel,
		Split:         split,
	}
	dicts := &models.Dicts{
		LabelToIdx:     objVocab.TokenToIdx,
		IdxToLabel:     objVocab.IdxToToken,
		PredicateToIdx: predVocab.TokenToIdx,
		IdxToPredicate: predVocab.IdxToToken,
		PredicateCount: predVocab.Counts,
		ObjectCount:    objVocab.Counts,
	}
	return &Result{DB: db, Dicts: dicts, Report: report}, nil
}

func buildVocabularies(graphs []models.SceneGraph, opts Options) (Vocabulary, Vocabulary) {
	if ext := opts.External; ext != nil {
		objCounts := ExtractObjectTokens(graphs, tokensOf(ext.LabelToIdx))
		predCounts := ExtractPredicateTokens(graphs, tokensOf(ext.PredicateToIdx))
		return Vocabulary{TokenToIdx: ext.LabelToIdx, IdxToToken: ext.IdxToLabel, Counts: objCounts},
			Vocabulary{TokenToIdx: ext.PredicateToIdx, IdxToToken: ext.IdxToPredicate, Counts: predCounts}
	}

	objVocab := NewVocabulary(ExtractObjectTokens(graphs, opts.ObjectTokens))
	predVocab := NewVocabulary(ExtractPredicateTokens(graphs, opts.PredicateTokens))
	return objVocab, predVocab
}
