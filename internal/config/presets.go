package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Preset is a fixed set of converter flags, keyed by flag name without
// dashes. Flags it does not set keep their defaults.
type Preset map[string]string

// Args returns the preset's argument vector in flag order.
func (p Preset) Args() []string {
	return buildArgs(p)
}

// Options parses the preset over the defaults.
func (p Preset) Options() (Options, error) {
	return ParseArgs(p.Args())
}

func (p Preset) validate() error {
	known := make(map[string]bool, len(flagOrder))
	for _, name := range flagOrder {
		known[name] = true
	}
	for name := range p {
		if !known[name] {
			return fmt.Errorf("unknown flag %q", name)
		}
	}
	return nil
}

// Builtin returns the presets behind the wrapper scripts in scripts/.
func Builtin() map[string]Preset {
	return map[string]Preset{
		"vrr-base": {
			FlagIMDB:           "VG/imdb_1024.h5",
			FlagJSONFile:       "VG/VrR-VG-dicts.json",
			FlagH5File:         "VG/VrR-VG.h5",
			FlagLoadFrac:       "1",
			FlagMinBoxAreaFrac: "0.002",
		},
		"vrr-split": {
			FlagIMDB:           "VG/imdb_1024.h5",
			FlagJSONFile:       "VG/VrR-VG-split-dicts.json",
			FlagH5File:         "VG/VrR-VG-split.h5",
			FlagLoadFrac:       "1",
			FlagTrainFrac:      "0.7",
			FlagValFrac:        "0.8",
			FlagMinBoxAreaFrac: "0.002",
		},
		"vrr-external": {
			FlagIMDB:           "VG/imdb_1024.h5",
			FlagJSONFile:       "VG/VrR-VG-external-dicts.json",
			FlagH5File:         "VG/VrR-VG-external.h5",
			FlagLoadFrac:       "1",
			FlagMinBoxAreaFrac: "0.002",
			FlagExternalDicts:  "VG/VG-SGG-dicts.json",
		},
	}
}

type presetFile struct {
	Presets map[string]map[string]any `yaml:"presets"`
}

// LoadPresets returns the builtin presets overlaid with those defined in the
// YAML file at path. A file preset replaces a builtin of the same name.
func LoadPresets(path string) (map[string]Preset, error) {
	presets := Builtin()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}
	extra, err := ParsePresets(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for name, p := range extra {
		presets[name] = p
	}
	return presets, nil
}

// ParsePresets decodes a YAML document of the form
//
//	presets:
//	  name:
//	    flag: value
func ParsePresets(data []byte) (map[string]Preset, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presets: %w", err)
	}

	presets := make(map[string]Preset, len(file.Presets))
	for name, flags := range file.Presets {
		p := make(Preset, len(flags))
		for flag, raw := range flags {
			value, err := cast.ToStringE(raw)
			if err != nil {
				return nil, fmt.Errorf("preset %s: invalid value for %s: %w", name, flag, err)
			}
			p[flag] = value
		}
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
		presets[name] = p
	}
	return presets, nil
}

// Names returns the preset names in sorted order.
func Names(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
