// Package h5io reads the image database and writes the ROIDB as HDF5 files.
package h5io

import (
	"fmt"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
	"gonum.org/v1/hdf5"
)

// Dataset names in the image database file.
const (
	ImagesDataset          = "images"
	ValidIdxDataset        = "valid_idx"
	ImageIDsDataset        = "image_ids"
	OriginalHeightsDataset = "original_heights"
	OriginalWidthsDataset  = "original_widths"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadImageDB reads image count, valid indices, ids and original sizes. Pixel
// data is never loaded.
func (r *Reader) ReadImageDB(path string) (*models.ImageDB, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("failed to open image db %s: %w", path, err)
	}
	defer f.Close()

	db := &models.ImageDB{}
	if db.NumImages, err = leadingDim(f, ImagesDataset); err != nil {
		return nil, err
	}
	if db.ValidIdx, err = readInts(f, ValidIdxDataset); err != nil {
		return nil, err
	}
	if db.ImageIDs, err = readInts(f, ImageIDsDataset); err != nil {
		return nil, err
	}
	if db.Heights, err = readInts(f, OriginalHeightsDataset); err != nil {
		return nil, err
	}
	if db.Widths, err = readInts(f, OriginalWidthsDataset); err != nil {
		return nil, err
	}
	return db, nil
}

func leadingDim(f *hdf5.File, name string) (int, error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset %s: %w", name, err)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return 0, fmt.Errorf("failed to read shape of %s: %w", name, err)
	}
	if len(dims) == 0 {
		return 0, fmt.Errorf("dataset %s is a scalar", name)
	}
	return int(dims[0]), nil
}

// readInts reads a numeric dataset of any shape into a flat []int. The
// buffer type follows the stored type since reads use the file datatype.
func readInts(f *hdf5.File, name string) ([]int, error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", name, err)
	}
	defer ds.Close()

	dtype, err := ds.Datatype()
	if err != nil {
		return nil, fmt.Errorf("failed to read datatype of %s: %w", name, err)
	}
	defer dtype.Close()

	space := ds.Space()
	defer space.Close()
	n := space.SimpleExtentNPoints()
	if n == 0 {
		return []int{}, nil
	}

	var out []int
	switch class, size := dtype.Class(), dtype.Size(); {
	case class == hdf5.T_INTEGER && size == 2:
		out, err = readAs[int16](ds, n)
	case class == hdf5.T_INTEGER && size == 4:
		out, err = readAs[int32](ds, n)
	case class == hdf5.T_INTEGER && size == 8:
		out, err = readAs[int64](ds, n)
	case class == hdf5.T_FLOAT && size == 4:
		out, err = readAs[float32](ds, n)
	case class == hdf5.T_FLOAT && size == 8:
		out, err = readAs[float64](ds, n)
	default:
		return nil, fmt.Errorf("dataset %s: unsupported element type (class %d, %d bytes)", name, class, size)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", name, err)
	}
	return out, nil
}

func readAs[T int16 | int32 | int64 | float32 | float64](ds *hdf5.Dataset, n int) ([]int, error) {
	buf := make([]T, n)
	if err := ds.Read(&buf); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i, v := range buf {
		out[i] = int(v)
	}
	return out, nil
}
