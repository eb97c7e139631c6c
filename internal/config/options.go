// Package config holds the converter options, their command line flags and the
// named presets the wrapper scripts run.
package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/pflag"
)

// Flag names. They are the long-form flags of the converter command line.
const (
	FlagIMDB           = "imdb"
	FlagMetadataInput  = "metadata_input"
	FlagVrRVGDir       = "vrrvg_dir"
	FlagJSONFile       = "json_file"
	FlagH5File         = "h5_file"
	FlagLoadFrac       = "load_frac"
	FlagMinBoxAreaFrac = "min_box_area_frac"
	FlagTrainFrac      = "train_frac"
	FlagValFrac        = "val_frac"
	FlagUseInputSplit  = "use_input_split"
	FlagShuffle        = "shuffle"
	FlagSeed           = "seed"
	FlagWorkers        = "workers"
	FlagExternalDicts  = "external_VG_SGG_dicts"
	FlagObjectAlias    = "object_alias"
	FlagPredAlias      = "pred_alias"
	FlagObjectList     = "object_list"
	FlagPredList       = "pred_list"
	FlagDumpImageData  = "dump_image_data"
)

// flagOrder fixes the position of every flag in a built argument vector.
var flagOrder = []string{
	FlagIMDB,
	FlagMetadataInput,
	FlagVrRVGDir,
	FlagJSONFile,
	FlagH5File,
	FlagLoadFrac,
	FlagTrainFrac,
	FlagValFrac,
	FlagMinBoxAreaFrac,
	FlagUseInputSplit,
	FlagShuffle,
	FlagSeed,
	FlagWorkers,
	FlagExternalDicts,
	FlagObjectAlias,
	FlagPredAlias,
	FlagObjectList,
	FlagPredList,
	FlagDumpImageData,
}

var boolFlags = map[string]bool{
	FlagUseInputSplit: true,
	FlagShuffle:       true,
}

var (
	ErrMissingPath = errors.New("required path is empty")
	ErrLoadFrac    = errors.New("load_frac must be in (0, 1]")
	ErrFraction    = errors.New("split fraction must be in [0, 1]")
	ErrSplitOrder  = errors.New("train_frac must not exceed val_frac")
	ErrMinBoxArea  = errors.New("min_box_area_frac must be in [0, 1)")
	ErrWorkers     = errors.New("workers must be at least 1")
)

// Options configures one conversion run.
type Options struct {
	IMDB           string  `yaml:"imdb"`
	MetadataInput  string  `yaml:"metadata_input"`
	VrRVGDir       string  `yaml:"vrrvg_dir"`
	JSONFile       string  `yaml:"json_file"`
	H5File         string  `yaml:"h5_file"`
	LoadFrac       float64 `yaml:"load_frac"`
	MinBoxAreaFrac float64 `yaml:"min_box_area_frac"`
	TrainFrac      float64 `yaml:"train_frac"`
	ValFrac        float64 `yaml:"val_frac"`
	UseInputSplit  bool    `yaml:"use_input_split"`
	Shuffle        bool    `yaml:"shuffle"`
	Seed           int64   `yaml:"seed"`
	Workers        int     `yaml:"workers"`

	// ExternalDicts names a dicts JSON file whose vocabulary replaces the one
	// built from the annotations.
	ExternalDicts string `yaml:"external_VG_SGG_dicts"`
	ObjectAlias   string `yaml:"object_alias"`
	PredAlias     string `yaml:"pred_alias"`
	ObjectList    string `yaml:"object_list"`
	PredList      string `yaml:"pred_list"`
	DumpImageData string `yaml:"dump_image_data"`
}

func Defaults() Options {
	return Options{
		IMDB:           "VG/imdb_1024.h5",
		MetadataInput:  "VG/image_data.json",
		VrRVGDir:       "VG/VrR-VG",
		JSONFile:       "VG-dicts.json",
		H5File:         "VG.h5",
		LoadFrac:       1,
		MinBoxAreaFrac: 0.002,
		TrainFrac:      0.7,
		ValFrac:        0.7,
		Workers:        8,
	}
}

func (o Options) Validate() error {
	paths := []struct {
		flag, value string
	}{
		{FlagIMDB, o.IMDB},
		{FlagMetadataInput, o.MetadataInput},
		{FlagVrRVGDir, o.VrRVGDir},
		{FlagJSONFile, o.JSONFile},
		{FlagH5File, o.H5File},
	}
	for _, p := range paths {
		if p.value == "" {
			return fmt.Errorf("%w: --%s", ErrMissingPath, p.flag)
		}
	}

	if o.LoadFrac <= 0 || o.LoadFrac > 1 {
		return fmt.Errorf("%w: got %v", ErrLoadFrac, o.LoadFrac)
	}
	if o.TrainFrac < 0 || o.TrainFrac > 1 {
		return fmt.Errorf("%w: --%s %v", ErrFraction, FlagTrainFrac, o.TrainFrac)
	}
	if o.ValFrac < 0 || o.ValFrac > 1 {
		return fmt.Errorf("%w: --%s %v", ErrFraction, FlagValFrac, o.ValFrac)
	}
	if o.TrainFrac > o.ValFrac {
		return fmt.Errorf("%w: %v > %v", ErrSplitOrder, o.TrainFrac, o.ValFrac)
	}
	if o.MinBoxAreaFrac < 0 || o.MinBoxAreaFrac >= 1 {
		return fmt.Errorf("%w: got %v", ErrMinBoxArea, o.MinBoxAreaFrac)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrWorkers, o.Workers)
	}
	return nil
}

// values renders every option as its flag value, keyed by flag name.
func (o Options) values() map[string]string {
	return map[string]string{
		FlagIMDB:           o.IMDB,
		FlagMetadataInput:  o.MetadataInput,
		FlagVrRVGDir:       o.VrRVGDir,
		FlagJSONFile:       o.JSONFile,
		FlagH5File:         o.H5File,
		FlagLoadFrac:       formatFloat(o.LoadFrac),
		FlagTrainFrac:      formatFloat(o.TrainFrac),
		FlagValFrac:        formatFloat(o.ValFrac),
		FlagMinBoxAreaFrac: formatFloat(o.MinBoxAreaFrac),
		FlagUseInputSplit:  strconv.FormatBool(o.UseInputSplit),
		FlagShuffle:        strconv.FormatBool(o.Shuffle),
		FlagSeed:           strconv.FormatInt(o.Seed, 10),
		FlagWorkers:        strconv.Itoa(o.Workers),
		FlagExternalDicts:  o.ExternalDicts,
		FlagObjectAlias:    o.ObjectAlias,
		FlagPredAlias:      o.PredAlias,
		FlagObjectList:     o.ObjectList,
		FlagPredList:       o.PredList,
		FlagDumpImageData:  o.DumpImageData,
	}
}

// Args returns the argument vector that reproduces o. Empty optional paths
// are left out. The order is the same on every call.
func (o Options) Args() []string {
	return buildArgs(o.values())
}

func buildArgs(values map[string]string) []string {
	var args []string
	for _, name := range flagOrder {
		value, ok := values[name]
		if !ok || value == "" {
			continue
		}
		if boolFlags[name] {
			args = append(args, "--"+name+"="+value)
			continue
		}
		args = append(args, "--"+name, value)
	}
	return args
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BindFlags registers every option on fs, using the current values of o as
// defaults.
func BindFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVar(&o.IMDB, FlagIMDB, o.IMDB, "image database HDF5 file")
	fs.StringVar(&o.MetadataInput, FlagMetadataInput, o.MetadataInput, "image metadata JSON file")
	fs.StringVar(&o.VrRVGDir, FlagVrRVGDir, o.VrRVGDir, "directory of per-image VrR-VG XML annotations")
	fs.StringVar(&o.JSONFile, FlagJSONFile, o.JSONFile, "output label and predicate dictionary JSON file")
	fs.StringVar(&o.H5File, FlagH5File, o.H5File, "output ROIDB HDF5 file")
	fs.Float64Var(&o.LoadFrac, FlagLoadFrac, o.LoadFrac, "fraction of images to convert")
	fs.Float64Var(&o.TrainFrac, FlagTrainFrac, o.TrainFrac, "fraction of images where the val split begins")
	fs.Float64Var(&o.ValFrac, FlagValFrac, o.ValFrac, "fraction of images where the test split begins")
	fs.Float64Var(&o.MinBoxAreaFrac, FlagMinBoxAreaFrac, o.MinBoxAreaFrac, "drop boxes smaller than this fraction of the image area (0 disables)")
	fs.BoolVar(&o.UseInputSplit, FlagUseInputSplit, o.UseInputSplit, "take the split of each image from its metadata")
	fs.BoolVar(&o.Shuffle, FlagShuffle, o.Shuffle, "shuffle images before assigning splits")
	fs.Int64Var(&o.Seed, FlagSeed, o.Seed, "seed for the split shuffle")
	fs.IntVar(&o.Workers, FlagWorkers, o.Workers, "parallel annotation readers")
	fs.StringVar(&o.ExternalDicts, FlagExternalDicts, o.ExternalDicts, "dicts JSON file whose vocabulary is used instead of the annotations'")
	fs.StringVar(&o.ObjectAlias, FlagObjectAlias, o.ObjectAlias, "object alias file (comma separated, first token is the target)")
	fs.StringVar(&o.PredAlias, FlagPredAlias, o.PredAlias, "predicate alias file")
	fs.StringVar(&o.ObjectList, FlagObjectList, o.ObjectList, "file listing the object vocabulary, one per line")
	fs.StringVar(&o.PredList, FlagPredList, o.PredList, "file listing the predicate vocabulary, one per line")
	fs.StringVar(&o.DumpImageData, FlagDumpImageData, o.DumpImageData, "write the filtered image metadata to this JSON file")
}

// ParseArgs parses args over the defaults and validates the result.
func ParseArgs(args []string) (Options, error) {
	opts := Defaults()
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	BindFlags(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return Options{}, fmt.Errorf("failed to parse converter flags: %w", err)
	}
	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
