package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Ledger remembers which file contents were already indexed, keyed by
// content hash, so re-running ingestion skips unchanged files.
type Ledger struct {
	db *sql.DB
}

// IngestRecord is one row of the ledger.
type IngestRecord struct {
	ContentHash string    `json:"content_hash"`
	Path        string    `json:"path"`
	Source      string    `json:"source"`
	Chunks      int       `json:"chunks"`
	IngestedAt  time.Time `json:"ingested_at"`
}

var ErrAlreadyRecorded = errors.New("content already recorded")

func OpenLedger(ctx context.Context, dsn string) (*Ledger, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	l := &Ledger{db: db}
	if err := l.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS ingested_files (
		content_hash VARCHAR(64) PRIMARY KEY,
		path TEXT NOT NULL,
		source VARCHAR(20) NOT NULL,
		chunks INT NOT NULL DEFAULT 0,
		ingested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

// Seen reports whether content with this hash was already indexed.
func (l *Ledger) Seen(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ingested_files WHERE content_hash = $1)`, hash).Scan(&exists)
	return exists, err
}

// Record marks a hash as indexed. Recording the same hash twice returns
// ErrAlreadyRecorded.
func (l *Ledger) Record(ctx context.Context, rec IngestRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ingested_files (content_hash, path, source, chunks)
		VALUES ($1, $2, $3, $4)
	`, rec.ContentHash, rec.Path, rec.Source, rec.Chunks)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrAlreadyRecorded
	}
	return err
}

// List returns ledger rows, newest first.
func (l *Ledger) List(ctx context.Context) ([]IngestRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT content_hash, path, source, chunks, ingested_at
		FROM ingested_files
		ORDER BY ingested_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IngestRecord
	for rows.Next() {
		var r IngestRecord
		if err := rows.Scan(&r.ContentHash, &r.Path, &r.Source, &r.Chunks, &r.IngestedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
