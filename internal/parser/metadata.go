// Package parser reads the converter's inputs: image metadata, VrR-VG XML
// annotations, alias and vocabulary lists, and existing dictionary files.
package parser

import (
	"encoding/json"
	"fmt"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
	"github.com/spf13/cast"
)

// ParseImageMetadata decodes a Visual Genome image_data.json array. Numeric
// fields may be encoded as JSON numbers or strings.
func ParseImageMetadata(data []byte) ([]models.ImageMeta, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image metadata")
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image metadata: %w", err)
	}

	metas := make([]models.ImageMeta, len(raw))
	for i, entry := range raw {
		id, ok := entry["image_id"]
		if !ok || id == nil {
			return nil, fmt.Errorf("image metadata entry %d: missing image_id field", i)
		}
		imageID, err := cast.ToIntE(id)
		if err != nil {
			return nil, fmt.Errorf("image metadata entry %d: invalid image_id: %w", i, err)
		}

		meta := models.ImageMeta{ImageID: imageID}
		if meta.Width, err = optionalInt(entry, "width"); err != nil {
			return nil, fmt.Errorf("image metadata entry %d: %w", i, err)
		}
		if meta.Height, err = optionalInt(entry, "height"); err != nil {
			return nil, fmt.Errorf("image metadata entry %d: %w", i, err)
		}
		if url, ok := entry["url"]; ok && url != nil {
			meta.URL = cast.ToString(url)
		}
		if split, ok := entry["split"]; ok && split != nil {
			meta.Split = cast.ToString(split)
		}
		metas[i] = meta
	}

	return metas, nil
}

func optionalInt(entry map[string]any, key string) (int, error) {
	v, ok := entry[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
