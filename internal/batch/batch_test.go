// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// fakeAnnotator fails on any file whose name contains "bad".
type fakeAnnotator struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeAnnotator) AnnotateFile(_ context.Context, path string) (*types.AnnotationRecord, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	if strings.Contains(filepath.Base(path), "bad") {
		return nil, errors.New("decoding image: corrupt")
	}
	return &types.AnnotationRecord{ID: filepath.Base(path), Source: path}, nil
}

type fakeSaver struct {
	mu    sync.Mutex
	ids   []string
	fails bool
}

func (s *fakeSaver) SaveAnnotation(_ context.Context, rec *types.AnnotationRecord) error {
	if s.fails {
		return errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, rec.ID)
	return nil
}

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func dataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root,
		"人物类/b.jpg",
		"人物类/a.PNG",
		"人物类/bad.png",
		"人物类/notes.txt",
		"动物类/c.jpeg",
		"动物类/nested/d.png",
	)
	return root
}

func TestRunConfiguredCategories(t *testing.T) {
	root := dataset(t)
	a := &fakeAnnotator{}
	saver := &fakeSaver{}
	cfg := types.BatchConfig{Root: root, Categories: []string{"人物类", "抽象类", "动物类"}, Workers: 2}

	var buf bytes.Buffer
	res, err := NewRunner(a, saver, cfg, zerolog.Nop()).Run(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 3, res.Annotated)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 3, res.Saved)
	assert.True(t, res.HasFailures())
	assert.Equal(t, []string{"人物类", "动物类"}, res.Categories)

	people := res.Annotations["人物类"]
	require.Len(t, people, 2)
	assert.Equal(t, "a.PNG", people[0].ID)
	assert.Equal(t, "b.jpg", people[1].ID)
	for _, rec := range people {
		assert.Equal(t, "人物类", rec.Category)
	}
	require.Len(t, res.Annotations["动物类"], 1)
	assert.Equal(t, "动物类", res.Annotations["动物类"][0].Category)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bad.png", filepath.Base(res.Failures[0].Path))
	assert.ElementsMatch(t, []string{"a.PNG", "b.jpg", "c.jpeg"}, saver.ids)

	out := buf.String()
	assert.Contains(t, out, "warning: category 抽象类")
	assert.Contains(t, out, "failed: ")
	assert.Contains(t, out, "category 人物类: 3 images")
	assert.NotContains(t, out, "notes.txt")
	assert.NotContains(t, out, filepath.Join("nested", "d.png"), "nested directories are not walked")
	for _, recs := range res.Annotations {
		for _, rec := range recs {
			assert.NotEqual(t, "d.png", rec.ID)
		}
	}
}

func TestRunDiscoversCategories(t *testing.T) {
	root := dataset(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0o755))

	res, err := NewRunner(&fakeAnnotator{}, nil, types.BatchConfig{Root: root}, zerolog.Nop()).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"人物类", "动物类"}, res.Categories)
	assert.Equal(t, 0, res.Saved)
}

func TestRunMissingRoot(t *testing.T) {
	cfg := types.BatchConfig{Root: filepath.Join(t.TempDir(), "missing")}
	_, err := NewRunner(&fakeAnnotator{}, nil, cfg, zerolog.Nop()).Run(context.Background(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "reading dataset root")
}

func TestRunSaveFailureKeepsAnnotation(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "花样类/a.png")

	res, err := NewRunner(&fakeAnnotator{}, &fakeSaver{fails: true}, types.BatchConfig{Root: root}, zerolog.Nop()).
		Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Annotated)
	assert.Equal(t, 0, res.Saved)
	assert.False(t, res.HasFailures())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(&fakeAnnotator{}, nil, types.BatchConfig{Root: dataset(t)}, zerolog.Nop()).Run(ctx, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteJSON(t *testing.T) {
	res := Result{
		Categories: []string{"人物类", "抽象类"},
		Annotations: map[string][]*types.AnnotationRecord{
			"人物类": {{ID: "a", Category: "人物类"}},
		},
	}
	path := filepath.Join(t.TempDir(), "out", "dataset_annotations.json")
	require.NoError(t, WriteJSON(path, res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string][]types.AnnotationRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got["人物类"], 1)
	assert.Equal(t, "a", got["人物类"][0].ID)
	assert.NotNil(t, got["抽象类"])
	assert.Empty(t, got["抽象类"])
}

func TestPrintSummary(t *testing.T) {
	res := Result{
		Total: 3, Annotated: 2, Failed: 1, Saved: 2,
		Categories:  []string{"动物类"},
		Annotations: map[string][]*types.AnnotationRecord{"动物类": {{}, {}}},
	}
	var buf bytes.Buffer
	PrintSummary(&buf, res)
	assert.Contains(t, buf.String(), "total: 3 images, 2 annotated, 1 failed, 2 saved")
	assert.Contains(t, buf.String(), "  动物类: 2\n")
}
