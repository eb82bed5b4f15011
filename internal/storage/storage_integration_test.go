package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPgvector runs a throwaway Postgres with the vector extension available
// and returns its DSN.
func startPgvector(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:pg16",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "agent",
				"POSTGRES_PASSWORD": "agent",
				"POSTGRES_DB":       "agent",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("pgvector container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://agent:agent@%s:%s/agent?sslmode=disable", host, port.Port())
}

func TestStoreRoundTrip(t *testing.T) {
	dsn := startPgvector(t)
	ctx := context.Background()

	st, err := Open(ctx, dsn, "chunks", 3)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.EnsureSchema(ctx))
	require.NoError(t, st.EnsureSchema(ctx), "schema creation must be idempotent")

	err = st.InsertChunks(ctx, []Chunk{
		{Filename: "ml.txt", Source: "local", Index: 0, Content: "machine learning", Embedding: []float32{1, 0, 0}},
		{Filename: "ml.txt", Source: "local", Index: 1, Content: "deep learning", Embedding: []float32{0.9, 0.1, 0}},
		{Filename: "cooking.txt", Source: "local", Index: 0, Content: "pasta recipe", Embedding: []float32{0, 0, 1}},
	})
	require.NoError(t, err)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	matches, err := st.QuerySimilar(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "machine learning", matches[0].Content)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "deep learning", matches[1].Content)
	assert.Greater(t, matches[0].Score, matches[1].Score)

	deleted, err := st.DeleteByFile(ctx, "ml.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	matches, err = st.QuerySimilar(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "cooking.txt", matches[0].Filename)
}

func TestStoreRejectsWrongDimension(t *testing.T) {
	dsn := startPgvector(t)
	ctx := context.Background()

	st, err := Open(ctx, dsn, "", 3)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.EnsureSchema(ctx))

	err = st.InsertChunks(ctx, []Chunk{
		{Filename: "a.txt", Content: "ok", Embedding: []float32{1, 0, 0}},
		{Filename: "a.txt", Index: 1, Content: "bad", Embedding: []float32{1}},
	})
	require.Error(t, err)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a failed document must not leave partial chunks")
}

func TestLedger(t *testing.T) {
	dsn := startPgvector(t)
	ctx := context.Background()

	l, err := OpenLedger(ctx, dsn)
	require.NoError(t, err)
	defer l.Close()

	seen, err := l.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, seen)

	rec := IngestRecord{ContentHash: "abc", Path: "/docs/ml.pdf", Source: "local", Chunks: 4}
	require.NoError(t, l.Record(ctx, rec))
	assert.ErrorIs(t, l.Record(ctx, rec), ErrAlreadyRecorded)

	seen, err = l.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, seen)

	list, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/docs/ml.pdf", list[0].Path)
	assert.Equal(t, 4, list[0].Chunks)
}
