package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(vec []float32) float64 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestNewHashEmbedder_Dimensions(t *testing.T) {
	_, err := NewHashEmbedder(0)
	assert.Error(t, err)
	_, err = NewHashEmbedder(MaxDimensions + 1)
	assert.Error(t, err)

	emb, err := NewHashEmbedder(32)
	require.NoError(t, err)
	assert.Equal(t, 32, emb.Dim())
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	emb, err := NewHashEmbedder(128)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := emb.Embed(ctx, "The quick brown fox")
	require.NoError(t, err)
	b, err := emb.Embed(ctx, "the QUICK, brown... fox!")
	require.NoError(t, err)

	assert.Len(t, a, 128)
	assert.Equal(t, a, b, "case and punctuation are ignored")
	assert.InDelta(t, 1.0, norm(a), 1e-6)
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	emb, err := NewHashEmbedder(8)
	require.NoError(t, err)

	vec, err := emb.Embed(context.Background(), " ... ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
}

func TestHashEmbedder_CancelledContext(t *testing.T) {
	emb, err := NewHashEmbedder(8)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = emb.Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = emb.EmbedBatch(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashEmbedder_EmbedBatch(t *testing.T) {
	emb, err := NewHashEmbedder(16)
	require.NoError(t, err)
	ctx := context.Background()

	vecs, err := emb.EmbedBatch(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := emb.Embed(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[1])
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 0}), "length mismatch")
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}), "zero vector")
}
