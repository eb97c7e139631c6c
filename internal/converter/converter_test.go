package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kuanghuei/scene-graph-TF-release/internal/config"
	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
	"github.com/kuanghuei/scene-graph-TF-release/internal/parser"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	db    *models.ImageDB
	err   error
	calls int
}

func (f *fakeReader) ReadImageDB(path string) (*models.ImageDB, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.db, nil
}

type fakeWriter struct {
	path string
	db   *models.ROIDB
	err  error
}

func (f *fakeWriter) WriteROIDB(path string, db *models.ROIDB) error {
	if f.err != nil {
		return f.err
	}
	f.path, f.db = path, db
	return nil
}

type xmlObject struct {
	name                   string
	id                     int
	xmin, ymin, xmax, ymax int
}

type xmlRelation struct {
	subject, object int
	predicate       string
}

func annotationXML(objects []xmlObject, relations []xmlRelation) string {
	var b strings.Builder
	b.WriteString("<annotation>\n")
	for _, o := range objects {
		fmt.Fprintf(&b, "<object><name>%s</name><object_id>%d</object_id><difficult>0</difficult>"+
			"<bndbox><xmin>%d</xmin><ymin>%d</ymin><xmax>%d</xmax><ymax>%d</ymax></bndbox></object>\n",
			o.name, o.id, o.xmin, o.ymin, o.xmax, o.ymax)
	}
	for _, r := range relations {
		fmt.Fprintf(&b, "<relation><subject_id>%d</subject_id><object_id>%d</object_id><predicate>%s</predicate></relation>\n",
			r.subject, r.object, r.predicate)
	}
	b.WriteString("</annotation>\n")
	return b.String()
}

type fixture struct {
	dir    string
	opts   config.Options
	reader *fakeReader
	writer *fakeWriter
}

// newFixture lays out three metadata entries of which valid_idx keeps images
// 1 and 3. Image 1 has a man riding a horse, image 3 a lone horse.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	metadata := `[
		{"image_id": 1, "width": 1024, "height": 1024, "split": "train"},
		{"image_id": "2", "width": 800, "height": 600, "split": "val"},
		{"image_id": 3, "width": 1024, "height": 768, "split": "test"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image_data.json"), []byte(metadata), 0o644))

	annotations := filepath.Join(dir, "VrR-VG")
	require.NoError(t, os.Mkdir(annotations, 0o755))
	require.NoError(t, os.WriteFile(parser.AnnotationFile(annotations, 1), []byte(annotationXML(
		[]xmlObject{
			{name: "man", id: 10, xmin: 10, ymin: 10, xmax: 110, ymax: 210},
			{name: "horse", id: 11, xmin: 300, ymin: 300, xmax: 500, ymax: 400},
		},
		[]xmlRelation{{subject: 10, object: 11, predicate: "riding"}},
	)), 0o644))
	require.NoError(t, os.WriteFile(parser.AnnotationFile(annotations, 3), []byte(annotationXML(
		[]xmlObject{{name: "horse", id: 30, xmin: 0, ymin: 0, xmax: 50, ymax: 50}},
		nil,
	)), 0o644))

	opts := config.Defaults()
	opts.IMDB = filepath.Join(dir, "imdb_1024.h5")
	opts.MetadataInput = filepath.Join(dir, "image_data.json")
	opts.VrRVGDir = annotations
	opts.JSONFile = filepath.Join(dir, "VG-dicts.json")
	opts.H5File = filepath.Join(dir, "VG.h5")
	opts.TrainFrac = 0.5
	opts.ValFrac = 1
	opts.Workers = 2

	return &fixture{
		dir:  dir,
		opts: opts,
		reader: &fakeReader{db: &models.ImageDB{
			NumImages: 2,
			ValidIdx:  []int{0, 2},
			ImageIDs:  []int{1, 3},
			Heights:   []int{1024, 768},
			Widths:    []int{1024, 1024},
		}},
		writer: &fakeWriter{},
	}
}

func (f *fixture) run(t *testing.T) error {
	t.Helper()
	_, err := New(f.reader, f.writer, zerolog.Nop()).Run(context.Background(), f.opts)
	return err
}

func (f *fixture) dicts(t *testing.T) *models.Dicts {
	t.Helper()
	data, err := os.ReadFile(f.opts.JSONFile)
	require.NoError(t, err)
	dicts, err := parser.ParseDicts(data)
	require.NoError(t, err)
	return dicts
}

func TestConverter_Run(t *testing.T) {
	t.Run("converts the dataset", func(t *testing.T) {
		f := newFixture(t)

		report, err := New(f.reader, f.writer, zerolog.Nop()).Run(context.Background(), f.opts)

		require.NoError(t, err)
		assert.Equal(t, f.opts.H5File, f.writer.path)
		db := f.writer.db
		require.NotNil(t, db)
		// horse=1, man=2
		assert.Equal(t, []int32{2, 1, 1}, db.Labels)
		assert.Equal(t, []int32{0, 2}, db.ImgToFirstBox)
		assert.Equal(t, []int32{1, 2}, db.ImgToLastBox)
		assert.Equal(t, []int32{1}, db.Predicates)
		assert.Equal(t, [][2]int32{{0, 1}}, db.Relationships)
		assert.Equal(t, []int32{0, -1}, db.ImgToFirstRel)
		assert.Equal(t, []int32{0, 1}, db.Split)

		assert.Equal(t, 3, report.NumObjects)
		assert.Equal(t, 1, report.NumRelationships)
		require.NotNil(t, report.BoxFilter)
		assert.Equal(t, 3, report.BoxFilter.Kept)

		dicts := f.dicts(t)
		assert.Equal(t, map[string]int{"horse": 1, "man": 2}, dicts.LabelToIdx)
		assert.Equal(t, map[int]string{1: "horse", 2: "man"}, dicts.IdxToLabel)
		assert.Equal(t, map[string]int{"riding": 1}, dicts.PredicateToIdx)
		assert.Equal(t, map[string]int{"horse": 2, "man": 1}, dicts.ObjectCount)
	})

	t.Run("load frac truncates images", func(t *testing.T) {
		f := newFixture(t)
		f.opts.LoadFrac = 0.5

		require.NoError(t, f.run(t))

		assert.Equal(t, []int32{2, 1}, f.writer.db.Labels)
		assert.Len(t, f.writer.db.Split, 1)
	})

	t.Run("input split and metadata dump", func(t *testing.T) {
		f := newFixture(t)
		f.opts.UseInputSplit = true
		f.opts.DumpImageData = filepath.Join(f.dir, "image_data_.json")

		require.NoError(t, f.run(t))

		assert.Equal(t, []int32{0, 2}, f.writer.db.Split)
		data, err := os.ReadFile(f.opts.DumpImageData)
		require.NoError(t, err)
		metas, err := parser.ParseImageMetadata(data)
		require.NoError(t, err)
		require.Len(t, metas, 2)
		assert.Equal(t, 1, metas[0].ImageID)
		assert.Equal(t, 3, metas[1].ImageID)
	})

	t.Run("object alias renames labels", func(t *testing.T) {
		f := newFixture(t)
		f.opts.ObjectAlias = filepath.Join(f.dir, "object_alias.txt")
		require.NoError(t, os.WriteFile(f.opts.ObjectAlias, []byte("person,man\n"), 0o644))

		require.NoError(t, f.run(t))

		assert.Equal(t, map[string]int{"horse": 1, "person": 2}, f.dicts(t).LabelToIdx)
	})

	t.Run("object list restricts vocabulary", func(t *testing.T) {
		f := newFixture(t)
		f.opts.ObjectList = filepath.Join(f.dir, "object_list.txt")
		require.NoError(t, os.WriteFile(f.opts.ObjectList, []byte("horse\nman\ndog\n"), 0o644))

		require.NoError(t, f.run(t))

		assert.Equal(t, map[string]int{"horse": 1, "man": 2}, f.dicts(t).LabelToIdx)
	})

	t.Run("external dicts supply indices", func(t *testing.T) {
		f := newFixture(t)
		f.opts.ExternalDicts = filepath.Join(f.dir, "VG-SGG-dicts.json")
		external := `{"label_to_idx": {"man": 5, "horse": 9}, "predicate_to_idx": {"riding": 2, "on": 1}}`
		require.NoError(t, os.WriteFile(f.opts.ExternalDicts, []byte(external), 0o644))

		require.NoError(t, f.run(t))

		assert.Equal(t, []int32{5, 9, 9}, f.writer.db.Labels)
		assert.Equal(t, []int32{2}, f.writer.db.Predicates)
		dicts := f.dicts(t)
		assert.Equal(t, map[string]int{"man": 5, "horse": 9}, dicts.LabelToIdx)
		assert.Equal(t, map[int]string{1: "on", 2: "riding"}, dicts.IdxToPredicate)
	})

	t.Run("invalid options read nothing", func(t *testing.T) {
		f := newFixture(t)
		f.opts.LoadFrac = 0

		err := f.run(t)

		assert.ErrorIs(t, err, config.ErrLoadFrac)
		assert.Zero(t, f.reader.calls)
	})

	t.Run("missing metadata", func(t *testing.T) {
		f := newFixture(t)
		f.opts.MetadataInput = filepath.Join(f.dir, "missing.json")

		err := f.run(t)

		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("image db error", func(t *testing.T) {
		f := newFixture(t)
		f.reader.err = errors.New("bad imdb")

		err := f.run(t)

		assert.EqualError(t, err, "bad imdb")
	})

	t.Run("valid idx out of range", func(t *testing.T) {
		f := newFixture(t)
		f.reader.db.ValidIdx = []int{0, 7}

		err := f.run(t)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "valid_idx 7 out of range")
	})

	t.Run("missing annotation", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.Remove(parser.AnnotationFile(f.opts.VrRVGDir, 3)))

		err := f.run(t)

		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, f.writer.db)
	})

	t.Run("image ids disagree", func(t *testing.T) {
		f := newFixture(t)
		f.reader.db.ImageIDs = []int{1, 4}

		err := f.run(t)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "annotation is for image id 3, image db has 4")
	})

	t.Run("writer error skips dicts", func(t *testing.T) {
		f := newFixture(t)
		f.writer.err = errors.New("disk full")

		err := f.run(t)

		assert.EqualError(t, err, "disk full")
		_, statErr := os.Stat(f.opts.JSONFile)
		assert.ErrorIs(t, statErr, os.ErrNotExist)
	})
}

func TestFilterByIdx(t *testing.T) {
	metas := []models.ImageMeta{{ImageID: 1}, {ImageID: 2}, {ImageID: 3}}

	t.Run("keeps indexed entries in order", func(t *testing.T) {
		out, err := FilterByIdx(metas, []int{2, 0})

		require.NoError(t, err)
		assert.Equal(t, []models.ImageMeta{{ImageID: 3}, {ImageID: 1}}, out)
	})

	t.Run("negative index", func(t *testing.T) {
		_, err := FilterByIdx(metas, []int{-1})

		assert.Error(t, err)
	})
}

func TestSanityCheck(t *testing.T) {
	graphs := []models.SceneGraph{{ImageID: 1}, {ImageID: 3}, {ImageID: 5}}

	t.Run("extra annotations beyond the image db are allowed", func(t *testing.T) {
		err := SanityCheck(graphs, &models.ImageDB{NumImages: 2, ImageIDs: []int{1, 3}})

		assert.NoError(t, err)
	})

	t.Run("too few annotations", func(t *testing.T) {
		err := SanityCheck(graphs[:1], &models.ImageDB{NumImages: 2, ImageIDs: []int{1, 3}})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "annotations cover 1 images")
	})

	t.Run("too few image ids", func(t *testing.T) {
		err := SanityCheck(graphs, &models.ImageDB{NumImages: 2, ImageIDs: []int{1}})

		assert.Error(t, err)
	})
}
