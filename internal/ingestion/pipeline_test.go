package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/agentic-assistant/internal/processing"
	"github.com/Divas-Gupta30/agentic-assistant/internal/storage"
)

type lengthEmbedder struct{ err error }

func (e lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type memoryIndex struct {
	chunks []storage.Chunk
	err    error
}

func (m *memoryIndex) InsertChunks(_ context.Context, chunks []storage.Chunk) error {
	if m.err != nil {
		return m.err
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memoryIndex) DeleteByFile(_ context.Context, filename string) (int64, error) {
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.Filename != filename {
			kept = append(kept, c)
		}
	}
	n := int64(len(m.chunks) - len(kept))
	m.chunks = kept
	return n, nil
}

type memoryLedger struct {
	records map[string]storage.IngestRecord
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{records: map[string]storage.IngestRecord{}}
}

func (l *memoryLedger) Seen(_ context.Context, hash string) (bool, error) {
	_, ok := l.records[hash]
	return ok, nil
}

func (l *memoryLedger) Record(_ context.Context, rec storage.IngestRecord) error {
	if _, ok := l.records[rec.ContentHash]; ok {
		return storage.ErrAlreadyRecorded
	}
	l.records[rec.ContentHash] = rec
	return nil
}

func newTestPipeline(idx *memoryIndex, ledger Ledger) *Pipeline {
	return NewPipeline(processing.NewSplitter(40, 10), lengthEmbedder{}, idx, ledger, nil)
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ml.txt")
	writeFile(t, path, "Machine learning is a subset of AI.\n\nDeep learning uses neural networks.")

	idx := &memoryIndex{}
	ledger := newMemoryLedger()
	res, err := newTestPipeline(idx, ledger).IngestFile(context.Background(), path, processing.SourceLocal)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Chunks)
	require.Len(t, idx.chunks, 2)
	assert.Equal(t, "Machine learning is a subset of AI.", idx.chunks[0].Content)
	assert.Equal(t, 1, idx.chunks[1].Index)
	assert.Equal(t, "ml", idx.chunks[0].Title)
	assert.Equal(t, processing.SourceLocal, idx.chunks[0].Source)
	assert.NotEmpty(t, idx.chunks[0].ContentHash)
	assert.Len(t, ledger.records, 1)
}

func TestIngestFileSkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "same content")
	writeFile(t, filepath.Join(dir, "copy.txt"), "same content")

	idx := &memoryIndex{}
	p := newTestPipeline(idx, newMemoryLedger())

	_, err := p.IngestFile(context.Background(), filepath.Join(dir, "a.txt"), processing.SourceLocal)
	require.NoError(t, err)
	res, err := p.IngestFile(context.Background(), filepath.Join(dir, "copy.txt"), processing.SourceLocal)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Len(t, idx.chunks, 1)
}

func TestIngestFileWithoutLedgerReindexes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "same content")

	idx := &memoryIndex{}
	p := newTestPipeline(idx, nil)
	for range 2 {
		res, err := p.IngestFile(context.Background(), path, processing.SourceLocal)
		require.NoError(t, err)
		assert.False(t, res.Skipped)
	}
	assert.Len(t, idx.chunks, 1)
}

func TestIngestFileReplacesChangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	other := filepath.Join(dir, "other.txt")
	writeFile(t, path, "first version")
	writeFile(t, other, "unrelated")

	idx := &memoryIndex{}
	ledger := newMemoryLedger()
	p := newTestPipeline(idx, ledger)

	for _, f := range []string{path, other} {
		_, err := p.IngestFile(context.Background(), f, processing.SourceLocal)
		require.NoError(t, err)
	}

	writeFile(t, path, "second version")
	res, err := p.IngestFile(context.Background(), path, processing.SourceLocal)
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	var contents []string
	for _, c := range idx.chunks {
		contents = append(contents, c.Content)
	}
	assert.ElementsMatch(t, []string{"unrelated", "second version"}, contents)
	assert.Len(t, ledger.records, 3)
}

func TestIngestFileFailures(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	writeFile(t, empty, "  \n\n ")
	full := filepath.Join(dir, "full.txt")
	writeFile(t, full, "some text")

	t.Run("no text", func(t *testing.T) {
		_, err := newTestPipeline(&memoryIndex{}, nil).IngestFile(context.Background(), empty, processing.SourceLocal)
		assert.ErrorIs(t, err, ErrNoText)
	})

	t.Run("embedding fails", func(t *testing.T) {
		ledger := newMemoryLedger()
		p := NewPipeline(nil, lengthEmbedder{err: errors.New("ollama down")}, &memoryIndex{}, ledger, nil)
		_, err := p.IngestFile(context.Background(), full, processing.SourceLocal)
		assert.ErrorContains(t, err, "ollama down")
		assert.Empty(t, ledger.records, "failed files must be retried on the next run")
	})

	t.Run("insert fails", func(t *testing.T) {
		_, err := newTestPipeline(&memoryIndex{err: errors.New("db gone")}, nil).IngestFile(context.Background(), full, processing.SourceLocal)
		assert.ErrorContains(t, err, "db insert: db gone")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := newTestPipeline(&memoryIndex{}, nil).IngestFile(context.Background(), filepath.Join(dir, "nope.txt"), processing.SourceLocal)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestIngestDirContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha document")
	writeFile(t, filepath.Join(dir, "b.md"), "broken")
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "gamma document")
	writeFile(t, filepath.Join(dir, "skip.docx"), "ignored")

	idx := &memoryIndex{}
	p := newTestPipeline(idx, nil)
	p.Extract = func(path string) (string, error) {
		if strings.HasSuffix(path, ".md") {
			return "", errors.New("corrupt")
		}
		return ExtractText(path)
	}

	sum, err := p.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Files)
	assert.Equal(t, 2, sum.Indexed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Chunks)
	assert.Contains(t, sum.Results[1].Error, "corrupt")
	assert.Len(t, idx.chunks, 2)
}

func TestIngestPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "a.docx"), "alpha")

	p := newTestPipeline(&memoryIndex{}, nil)

	sum, err := p.IngestPath(context.Background(), filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Indexed)

	_, err = p.IngestPath(context.Background(), filepath.Join(dir, "a.docx"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = p.IngestPath(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

type fakeDrive struct {
	files    []DriveFile
	contents map[string]string
}

func (f *fakeDrive) ListPDFs(_ context.Context, _ string) ([]DriveFile, error) {
	return f.files, nil
}

func (f *fakeDrive) Download(_ context.Context, file DriveFile, dir string) (string, error) {
	body, ok := f.contents[file.ID]
	if !ok {
		return "", errors.New("403 forbidden")
	}
	path := filepath.Join(dir, file.ID+".pdf")
	return path, os.WriteFile(path, []byte(body), 0o644)
}

func TestIngestDrive(t *testing.T) {
	src := &fakeDrive{
		files: []DriveFile{
			{ID: "1", Name: "Handbook.pdf"},
			{ID: "2", Name: "Private.pdf"},
		},
		contents: map[string]string{"1": "handbook text"},
	}
	idx := &memoryIndex{}
	p := newTestPipeline(idx, nil)
	p.Extract = func(path string) (string, error) {
		b, err := os.ReadFile(path)
		return string(b), err
	}

	sum, err := p.IngestDrive(context.Background(), src, "folder")
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 1, sum.Indexed)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, idx.chunks, 1)
	assert.Equal(t, "gdrive://1/Handbook.pdf", idx.chunks[0].Filename)
	assert.Equal(t, "Handbook", idx.chunks[0].Title)
	assert.Equal(t, processing.SourceGDrive, idx.chunks[0].Source)
}
