package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vec []float32
	err error
	got string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.got = text
	return s.vec, s.err
}

type stubIndex struct {
	matches []Match
	err     error
	gotEmb  []float32
	gotK    int
}

func (s *stubIndex) QuerySimilar(_ context.Context, emb []float32, k int) ([]Match, error) {
	s.gotEmb, s.gotK = emb, k
	return s.matches, s.err
}

func TestRetrieverEmbedsThenSearches(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0}}
	idx := &stubIndex{matches: []Match{
		{ID: 1, Content: "close", Score: 1.0000001},
		{ID: 2, Content: "far", Score: -0.3},
		{ID: 3, Content: "mid", Score: 0.5},
	}}

	got, err := NewRetriever(idx, emb).Retrieve(context.Background(), "What is ML?", 3)
	require.NoError(t, err)

	assert.Equal(t, "What is ML?", emb.got)
	assert.Equal(t, []float32{1, 0}, idx.gotEmb)
	assert.Equal(t, 3, idx.gotK)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, got[0].Score)
	assert.Equal(t, 0.0, got[1].Score)
	assert.Equal(t, 0.5, got[2].Score)
}

func TestRetrieverErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewRetriever(&stubIndex{}, &stubEmbedder{err: boom}).Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "embed query")

	_, err = NewRetriever(&stubIndex{err: boom}, &stubEmbedder{vec: []float32{1}}).Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, boom)
}
