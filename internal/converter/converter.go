// Package converter runs one Visual Genome to ROIDB conversion: it reads the
// image database, metadata and VrR-VG annotations, builds the ROIDB and
// writes the HDF5 and dictionary outputs.
package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/kuanghuei/scene-graph-TF-release/internal/config"
	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
	"github.com/kuanghuei/scene-graph-TF-release/internal/parser"
	"github.com/kuanghuei/scene-graph-TF-release/internal/roidb"
	"github.com/rs/zerolog"
)

type ImageDBReader interface {
	ReadImageDB(path string) (*models.ImageDB, error)
}

type ROIDBWriter interface {
	WriteROIDB(path string, db *models.ROIDB) error
}

type Converter struct {
	reader ImageDBReader
	writer ROIDBWriter
	logger zerolog.Logger
}

func New(reader ImageDBReader, writer ROIDBWriter, logger zerolog.Logger) *Converter {
	return &Converter{reader: reader, writer: writer, logger: logger}
}

// Run converts the dataset described by opts. Nothing is written unless
// every input step succeeds.
func (c *Converter) Run(ctx context.Context, opts config.Options) (*roidb.Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := c.logger.With().Str("run_id", uuid.NewString()).Logger()
	logger.Info().Strs("args", opts.Args()).Msg("starting conversion")

	data, err := os.ReadFile(opts.MetadataInput)
	if err != nil {
		return nil, fmt.Errorf("failed to read image metadata: %w", err)
	}
	metas, err := parser.ParseImageMetadata(data)
	if err != nil {
		return nil, err
	}

	imdb, err := c.reader.ReadImageDB(opts.IMDB)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("imdb", opts.IMDB).
		Int("images", imdb.NumImages).
		Int("valid_idx", len(imdb.ValidIdx)).
		Int("image_ids", len(imdb.ImageIDs)).
		Msg("read image db")

	metas, err = FilterByIdx(metas, imdb.ValidIdx)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("images", len(metas)).Msg("filtered image metadata by valid_idx")

	if opts.DumpImageData != "" {
		if err := writeJSON(opts.DumpImageData, metas); err != nil {
			return nil, fmt.Errorf("failed to dump image metadata: %w", err)
		}
		logger.Info().Str("path", opts.DumpImageData).Msg("dumped filtered image metadata")
	}

	ids := make([]int, len(metas))
	for i, m := range metas {
		ids[i] = m.ImageID
	}
	graphs, err := parser.LoadAnnotations(ctx, opts.VrRVGDir, ids, opts.Workers)
	if err != nil {
		return nil, err
	}

	if opts.ObjectAlias != "" || opts.PredAlias != "" {
		objectAlias, err := readAlias(opts.ObjectAlias)
		if err != nil {
			return nil, err
		}
		predAlias, err := readAlias(opts.PredAlias)
		if err != nil {
			return nil, err
		}
		roidb.PreprocessLabels(graphs, objectAlias, predAlias)
		logger.Info().Int("object_aliases", len(objectAlias)).Int("predicate_aliases", len(predAlias)).Msg("applied aliases")
	}

	objectTokens, predicateTokens := parser.CollectTokens(graphs)
	if opts.ObjectList != "" {
		if objectTokens, err = readList(opts.ObjectList); err != nil {
			return nil, err
		}
	}
	if opts.PredList != "" {
		if predicateTokens, err = readList(opts.PredList); err != nil {
			return nil, err
		}
	}
	logger.Info().
		Int("object_classes", len(objectTokens)).
		Int("predicate_classes", len(predicateTokens)).
		Int("images", len(graphs)).
		Msg("loaded annotations")

	if err := SanityCheck(graphs, imdb); err != nil {
		return nil, err
	}

	numImages := imdb.NumImages
	if opts.LoadFrac < 1 {
		numImages = int(float64(numImages) * opts.LoadFrac)
	}
	graphs = graphs[:numImages]
	logger.Info().Int("images", numImages).Msg("processing images")

	buildOpts := roidb.Options{
		MinBoxAreaFrac:  opts.MinBoxAreaFrac,
		ObjectTokens:    objectTokens,
		PredicateTokens: predicateTokens,
		UseInputSplit:   opts.UseInputSplit,
		Split: roidb.SplitOptions{
			TrainFrac: opts.TrainFrac,
			ValFrac:   opts.ValFrac,
			Shuffle:   opts.Shuffle,
			Seed:      opts.Seed,
		},
	}
	if opts.UseInputSplit {
		buildOpts.InputSplits = make([]string, len(graphs))
		for i := range graphs {
			buildOpts.InputSplits[i] = metas[i].Split
		}
	}
	if opts.ExternalDicts != "" {
		if buildOpts.External, err = readDicts(opts.ExternalDicts); err != nil {
			return nil, err
		}
		logger.Info().
			Str("path", opts.ExternalDicts).
			Int("labels", len(buildOpts.External.LabelToIdx)).
			Int("predicates", len(buildOpts.External.PredicateToIdx)).
			Msg("using external dicts")
	}

	result, err := roidb.Build(graphs, imdb.Heights, imdb.Widths, buildOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to build roidb: %w", err)
	}
	logReport(logger, result.Report, opts.MinBoxAreaFrac)

	if err := c.writer.WriteROIDB(opts.H5File, result.DB); err != nil {
		return nil, err
	}
	if err := writeJSON(opts.JSONFile, result.Dicts); err != nil {
		return nil, fmt.Errorf("failed to write dicts: %w", err)
	}
	logger.Info().Str("h5_file", opts.H5File).Str("json_file", opts.JSONFile).Msg("conversion finished")

	return &result.Report, nil
}

// FilterByIdx keeps the metadata entries at the given indices, in index
// order.
func FilterByIdx(metas []models.ImageMeta, idx []int) ([]models.ImageMeta, error) {
	out := make([]models.ImageMeta, len(idx))
	for i, j := range idx {
		if j < 0 || j >= len(metas) {
			return nil, fmt.Errorf("valid_idx %d out of range for %d metadata entries", j, len(metas))
		}
		out[i] = metas[j]
	}
	return out, nil
}

// SanityCheck verifies that the first imdb.NumImages graphs are the images of
// the image database, in the same order.
func SanityCheck(graphs []models.SceneGraph, imdb *models.ImageDB) error {
	if len(graphs) < imdb.NumImages {
		return fmt.Errorf("annotations cover %d images, image db has %d", len(graphs), imdb.NumImages)
	}
	if len(imdb.ImageIDs) < imdb.NumImages {
		return fmt.Errorf("image db lists %d image ids for %d images", len(imdb.ImageIDs), imdb.NumImages)
	}
	for i := 0; i < imdb.NumImages; i++ {
		if graphs[i].ImageID != imdb.ImageIDs[i] {
			return fmt.Errorf("image %d: annotation is for image id %d, image db has %d", i, graphs[i].ImageID, imdb.ImageIDs[i])
		}
	}
	return nil
}

func logReport(logger zerolog.Logger, report roidb.Report, minBoxAreaFrac float64) {
	logger.Info().Int("synced_objects", report.SyncedObjects).Msg("synced relationship endpoints into objects")
	logger.Info().
		Int("correct", report.CrossCheck.Correct).
		Int("total", report.CrossCheck.Total).
		Msg("cross check")
	if report.BoxFilter != nil {
		logger.Info().
			Float64("min_box_area_frac", minBoxAreaFrac).
			Int("kept", report.BoxFilter.Kept).
			Int("total", report.BoxFilter.Total).
			Msg("box threshold")
	}
	logger.Info().
		Int("same", report.Merge.Same).
		Int("inside", report.Merge.Inside).
		Int("overlapping", report.Merge.Overlapping).
		Msg("merged boxes")
	logger.Info().
		Int("objects", report.ObjectTokens).
		Int("predicates", report.PredicateTokens).
		Msg("built vocabulary")

	rels := report.Relationships
	logger.Info().
		Int("filtered_by_object", rels.FilteredByObject).
		Int("filtered_by_predicate", rels.FilteredByPredicate).
		Int("filtered_by_duplicate", rels.FilteredByDuplicate).
		Int("kept", rels.Kept).
		Msg("encoded relationships")
	logger.Info().
		Int("with_relationships", rels.ImagesWithRelations).
		Int("images", rels.Images).
		Msg("images with relationships")
	logger.Info().
		Int("objects", report.NumObjects).
		Int("relationships", report.NumRelationships).
		Msg("encoded roidb")
	logger.Info().
		Int("train", report.Train).
		Int("val", report.Val).
		Int("test", report.Test).
		Msg("assigned splits")
}

func readAlias(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	fi, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open alias file: %w", err)
	}
	defer fi.Close()

	aliases, _, err := parser.ParseAliasDict(fi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return aliases, nil
}

func readList(path string) ([]string, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open list file: %w", err)
	}
	defer fi.Close()

	tokens, err := parser.ParseList(fi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tokens, nil
}

func readDicts(path string) (*models.Dicts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read external dicts: %w", err)
	}
	dicts, err := parser.ParseDicts(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dicts, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
