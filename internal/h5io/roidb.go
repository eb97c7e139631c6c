package h5io

import (
	"fmt"
	"sort"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
	"gonum.org/v1/hdf5"
)

// Dataset names in the ROIDB file. Box datasets are named BoxesDatasetPrefix
// followed by the long side, e.g. boxes_1024.
const (
	LabelsDataset        = "labels"
	BoxesDatasetPrefix   = "boxes_"
	ImgToFirstBoxDataset = "img_to_first_box"
	ImgToLastBoxDataset  = "img_to_last_box"
	PredicatesDataset    = "predicates"
	RelationshipsDataset = "relationships"
	ImgToFirstRelDataset = "img_to_first_rel"
	ImgToLastRelDataset  = "img_to_last_rel"
	SplitDataset         = "split"
)

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// WriteROIDB writes every dataset of db as int32, replacing any existing file.
func (w *Writer) WriteROIDB(path string, db *models.ROIDB) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("failed to create roidb %s: %w", path, err)
	}
	defer f.Close()

	n := uint(len(db.Labels))
	if err := writeInt32(f, LabelsDataset, db.Labels, n, 1); err != nil {
		return err
	}

	sizes := make([]int, 0, len(db.Boxes))
	for size := range db.Boxes {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	for _, size := range sizes {
		boxes := db.Boxes[size]
		flat := make([]int32, 0, len(boxes)*4)
		for _, b := range boxes {
			flat = append(flat, b[:]...)
		}
		name := fmt.Sprintf("%s%d", BoxesDatasetPrefix, size)
		if err := writeInt32(f, name, flat, uint(len(boxes)), 4); err != nil {
			return err
		}
	}

	if err := writeInt32(f, ImgToFirstBoxDataset, db.ImgToFirstBox, uint(len(db.ImgToFirstBox))); err != nil {
		return err
	}
	if err := writeInt32(f, ImgToLastBoxDataset, db.ImgToLastBox, uint(len(db.ImgToLastBox))); err != nil {
		return err
	}

	if err := writeInt32(f, PredicatesDataset, db.Predicates, uint(len(db.Predicates)), 1); err != nil {
		return err
	}
	pairs := make([]int32, 0, len(db.Relationships)*2)
	for _, p := range db.Relationships {
		pairs = append(pairs, p[0], p[1])
	}
	if err := writeInt32(f, RelationshipsDataset, pairs, uint(len(db.Relationships)), 2); err != nil {
		return err
	}
	if err := writeInt32(f, ImgToFirstRelDataset, db.ImgToFirstRel, uint(len(db.ImgToFirstRel))); err != nil {
		return err
	}
	if err := writeInt32(f, ImgToLastRelDataset, db.ImgToLastRel, uint(len(db.ImgToLastRel))); err != nil {
		return err
	}

	return writeInt32(f, SplitDataset, db.Split, uint(len(db.Split)))
}

func writeInt32(f *hdf5.File, name string, data []int32, dims ...uint) error {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("failed to create dataspace for %s: %w", name, err)
	}
	defer space.Close()

	ds, err := f.CreateDataset(name, hdf5.T_NATIVE_INT32, space)
	if err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", name, err)
	}
	defer ds.Close()

	if len(data) == 0 {
		return nil
	}
	if err := ds.Write(&data); err != nil {
		return fmt.Errorf("failed to write dataset %s: %w", name, err)
	}
	return nil
}
