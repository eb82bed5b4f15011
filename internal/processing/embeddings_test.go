package processing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL+"/", "nomic-embed-text", 3, time.Second)
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "nomic-embed-text", got.Model)
	assert.Equal(t, "hello", got.Prompt)
}

func TestOllamaEmbedderErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "wrong dimension",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float32{1}})
			},
			wantErr: "expected embedding dim 3, got 1",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			},
			wantErr: "status 404",
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{"))
			},
			wantErr: "failed decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewOllamaEmbedder(srv.URL, "m", 3, time.Second).Embed(context.Background(), "text")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOllamaEmbedderRejectsEmptyText(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "m", 0, time.Second).Embed(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.False(t, called)
}

type failingEmbedder struct{ failAt, calls int }

func (f *failingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	defer func() { f.calls++ }()
	if f.calls == f.failAt {
		return nil, errors.New("boom")
	}
	return []float32{float32(len(text))}, nil
}

func TestEmbedChunks(t *testing.T) {
	out, err := EmbedChunks(context.Background(), &failingEmbedder{failAt: -1}, []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, out)

	_, err = EmbedChunks(context.Background(), &failingEmbedder{failAt: 1}, []string{"a", "bb"})
	assert.EqualError(t, err, "failed embedding chunk 1: boom")

	_, err = EmbedChunks(context.Background(), &failingEmbedder{failAt: -1}, nil)
	assert.Error(t, err)
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata("/docs/Intro to ML.pdf", SourceLocal, []byte("abc"))
	assert.Equal(t, "Intro to ML", m.Title)
	assert.Equal(t, SourceLocal, m.Source)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", m.ContentHash)
	assert.False(t, m.ImportedAt.IsZero())
}
