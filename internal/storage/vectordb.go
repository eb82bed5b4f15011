package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/Divas-Gupta30/agentic-assistant/internal/processing"
)

// Chunk is one piece of a document ready to be indexed.
type Chunk struct {
	Filename    string
	Source      string
	Title       string
	ContentHash string
	Index       int
	Content     string
	Embedding   []float32
}

// Match is a stored chunk with its cosine similarity to the query.
type Match struct {
	ID       int64
	Filename string
	Source   string
	Content  string
	Score    float64
}

// InsertChunks writes all chunks of one document in a single transaction.
func (s *Store) InsertChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`INSERT INTO %s (filename, source, title, content_hash, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table)

	batch := &pgx.Batch{}
	for _, c := range chunks {
		if s.dim > 0 && len(c.Embedding) != s.dim {
			return fmt.Errorf("chunk %d of %s: expected embedding dim %d, got %d", c.Index, c.Filename, s.dim, len(c.Embedding))
		}
		batch.Queue(query, c.Filename, c.Source, c.Title, c.ContentHash, c.Index, c.Content, pgvector.NewVector(c.Embedding))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return tx.Commit(ctx)
}

// QuerySimilar returns the topK chunks closest to queryEmb by cosine
// distance. Ties are broken by insertion order.
func (s *Store) QuerySimilar(ctx context.Context, queryEmb []float32, topK int) ([]Match, error) {
	rows, err := s.Pool.Query(ctx, fmt.Sprintf(`
		SELECT id, filename, source, content, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, id
		LIMIT $2`, s.table),
		pgvector.NewVector(queryEmb), topK)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Filename, &m.Source, &m.Content, &m.Score); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.Pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&n)
	return n, err
}

// DeleteByFile removes every chunk of a document and reports how many rows
// were deleted.
func (s *Store) DeleteByFile(ctx context.Context, filename string) (int64, error) {
	tag, err := s.Pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE filename = $1`, s.table), filename)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Querier is the read side of Store.
type Querier interface {
	QuerySimilar(ctx context.Context, queryEmb []float32, topK int) ([]Match, error)
}

// Retriever embeds a query and searches the index with it.
type Retriever struct {
	Index    Querier
	Embedder processing.Embedder
}

func NewRetriever(index Querier, embedder processing.Embedder) *Retriever {
	return &Retriever{Index: index, Embedder: embedder}
}

// Retrieve returns up to k matches ordered by descending similarity, with
// scores clamped to [0,1].
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Match, error) {
	emb, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := r.Index.QuerySimilar(ctx, emb, k)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].Score = min(max(matches[i].Score, 0), 1)
	}
	return matches, nil
}
