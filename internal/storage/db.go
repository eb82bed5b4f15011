package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable holds document chunks and their embeddings.
const DefaultTable = "documents"

// Store is the pgvector-backed chunk index.
type Store struct {
	Pool  *pgxpool.Pool
	table string
	dim   int
}

// Open connects to Postgres and checks the connection. The table name is
// quoted as an identifier.
func Open(ctx context.Context, url, table string, dim int) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	return &Store{
		Pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
		dim:   dim,
	}, nil
}

// EnsureSchema creates the vector extension, the chunk table and its
// similarity index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT NOT NULL,
			source TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL DEFAULT '',
			chunk_index INT NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table, s.dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pgx.Identifier{s.indexName()}.Sanitize(), s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) indexName() string {
	// s.table is already quoted.
	return s.table[1:len(s.table)-1] + "_embedding_idx"
}

func (s *Store) Close() {
	s.Pool.Close()
}
