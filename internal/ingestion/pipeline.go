package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
	"github.com/Divas-Gupta30/agentic-assistant/internal/processing"
	"github.com/Divas-Gupta30/agentic-assistant/internal/storage"
)

// Index is where embedded chunks end up.
type Index interface {
	InsertChunks(ctx context.Context, chunks []storage.Chunk) error
	DeleteByFile(ctx context.Context, filename string) (int64, error)
}

// Ledger tracks already indexed content.
type Ledger interface {
	Seen(ctx context.Context, hash string) (bool, error)
	Record(ctx context.Context, rec storage.IngestRecord) error
}

// Result describes what happened to one file.
type Result struct {
	Path    string `json:"path"`
	Chunks  int    `json:"chunks"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary aggregates a multi-file run.
type Summary struct {
	Files   int      `json:"files"`
	Indexed int      `json:"indexed"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Chunks  int      `json:"chunks"`
	Results []Result `json:"results"`
}

func (s *Summary) add(r Result) {
	s.Files++
	s.Results = append(s.Results, r)
	switch {
	case r.Error != "":
		s.Failed++
	case r.Skipped:
		s.Skipped++
	default:
		s.Indexed++
		s.Chunks += r.Chunks
	}
}

// Pipeline turns files into indexed chunks: extract, split, embed, insert.
type Pipeline struct {
	Splitter *processing.Splitter
	Embedder processing.Embedder
	Index    Index
	// Ledger is optional; without it every file is indexed again.
	Ledger Ledger
	// Extract defaults to ExtractText.
	Extract func(path string) (string, error)

	log *zap.Logger
}

func NewPipeline(splitter *processing.Splitter, embedder processing.Embedder, index Index, ledger Ledger, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if splitter == nil {
		splitter = processing.NewSplitter(processing.DefaultChunkSize, processing.DefaultChunkOverlap)
	}
	return &Pipeline{
		Splitter: splitter,
		Embedder: embedder,
		Index:    index,
		Ledger:   ledger,
		Extract:  ExtractText,
		log:      log,
	}
}

// IngestFile indexes one file. Unchanged content already in the ledger is
// skipped.
func (p *Pipeline) IngestFile(ctx context.Context, path, source string) (Result, error) {
	return p.ingest(ctx, path, path, source)
}

// ingest reads the file at path and stores its chunks under name.
func (p *Pipeline) ingest(ctx context.Context, path, name, source string) (Result, error) {
	res := Result{Path: name}

	raw, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	meta := processing.NewMetadata(name, source, raw)

	if p.Ledger != nil {
		seen, err := p.Ledger.Seen(ctx, meta.ContentHash)
		if err != nil {
			return res, fmt.Errorf("check ledger: %w", err)
		}
		if seen {
			res.Skipped = true
			p.log.Info("Skipping unchanged file", zap.String("path", name))
			return res, nil
		}
	}

	text, err := p.Extract(path)
	if err != nil {
		return res, fmt.Errorf("extract: %w", err)
	}
	parts := p.Splitter.Split(text)
	if len(parts) == 0 {
		return res, ErrNoText
	}

	embs, err := processing.EmbedChunks(ctx, p.Embedder, parts)
	if err != nil {
		return res, err
	}

	chunks := make([]storage.Chunk, len(parts))
	for i := range parts {
		chunks[i] = storage.Chunk{
			Filename:    meta.Path,
			Source:      meta.Source,
			Title:       meta.Title,
			ContentHash: meta.ContentHash,
			Index:       i,
			Content:     parts[i],
			Embedding:   embs[i],
		}
	}
	// A changed file keeps its name but gets a new hash; drop its old chunks.
	replaced, err := p.Index.DeleteByFile(ctx, meta.Path)
	if err != nil {
		return res, fmt.Errorf("db delete: %w", err)
	}
	if replaced > 0 {
		p.log.Info("Replacing previous chunks", zap.String("path", name), zap.Int64("chunks", replaced))
	}
	if err := p.Index.InsertChunks(ctx, chunks); err != nil {
		return res, fmt.Errorf("db insert: %w", err)
	}
	res.Chunks = len(chunks)
	metrics.ChunksIngestedTotal.WithLabelValues(source).Add(float64(len(chunks)))

	if p.Ledger != nil {
		err := p.Ledger.Record(ctx, storage.IngestRecord{
			ContentHash: meta.ContentHash,
			Path:        meta.Path,
			Source:      meta.Source,
			Chunks:      len(chunks),
		})
		if err != nil && !errors.Is(err, storage.ErrAlreadyRecorded) {
			return res, fmt.Errorf("record ledger: %w", err)
		}
	}

	p.log.Info("Indexed file", zap.String("path", name), zap.String("source", source), zap.Int("chunks", len(chunks)))
	return res, nil
}

// IngestPaths indexes each path. A failing file is logged and counted, never
// fatal to the run.
func (p *Pipeline) IngestPaths(ctx context.Context, paths []string, source string) Summary {
	var sum Summary
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		res, err := p.IngestFile(ctx, path, source)
		if err != nil {
			res.Error = err.Error()
			p.log.Warn("skip file", zap.String("path", path), zap.Error(err))
		}
		sum.add(res)
	}
	return sum
}

// IngestDir indexes every supported file below root.
func (p *Pipeline) IngestDir(ctx context.Context, root string) (Summary, error) {
	files, err := LoadLocalFiles(root)
	if err != nil {
		return Summary{}, fmt.Errorf("load files: %w", err)
	}
	p.log.Info("Starting indexing", zap.String("root", root), zap.Int("files", len(files)))
	return p.IngestPaths(ctx, files, processing.SourceLocal), nil
}

// IngestPath indexes a single file or, for a directory, everything below it.
func (p *Pipeline) IngestPath(ctx context.Context, path string) (Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Summary{}, err
	}
	if info.IsDir() {
		return p.IngestDir(ctx, path)
	}
	if !Supported(path) {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	return p.IngestPaths(ctx, []string{path}, processing.SourceLocal), nil
}

// DriveLister is the part of DriveSource the pipeline uses.
type DriveLister interface {
	ListPDFs(ctx context.Context, folderID string) ([]DriveFile, error)
	Download(ctx context.Context, f DriveFile, dir string) (string, error)
}

// IngestDrive downloads the PDFs of a Drive folder into a temporary
// directory and indexes them.
func (p *Pipeline) IngestDrive(ctx context.Context, src DriveLister, folderID string) (Summary, error) {
	files, err := src.ListPDFs(ctx, folderID)
	if err != nil {
		return Summary{}, err
	}
	dir, err := os.MkdirTemp("", "agent-gdrive-")
	if err != nil {
		return Summary{}, err
	}
	defer os.RemoveAll(dir)

	p.log.Info("Starting Drive indexing", zap.String("folder", folderID), zap.Int("files", len(files)))

	var sum Summary
	for _, f := range files {
		path, err := src.Download(ctx, f, dir)
		if err != nil {
			p.log.Warn("skip drive file", zap.String("name", f.Name), zap.Error(err))
			sum.add(Result{Path: f.Name, Error: err.Error()})
			continue
		}
		res, err := p.ingest(ctx, path, "gdrive://"+f.ID+"/"+f.Name, processing.SourceGDrive)
		if err != nil {
			res.Error = err.Error()
			p.log.Warn("skip drive file", zap.String("name", f.Name), zap.Error(err))
		}
		sum.add(res)
	}
	return sum, nil
}
