package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/value"
)

// Model defaults and limits.
const (
	DefaultDimensions = 64
	MaxDimensions     = 4096
)

// Embedder converts text into fixed-size vectors.
type Embedder interface {
	// Embed converts a single text into a vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts into vectors, one per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dim returns the dimension of vectors produced by this embedder.
	Dim() int
}

// HashEmbedder is a deterministic feature-hashing embedder. Each
// case-folded word adds +1 or -1 to one dimension chosen by its FNV-1a hash,
// and the result is L2-normalized. Texts sharing words have positive cosine
// similarity; identical word multisets embed identically.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns an embedder producing dims-dimensional vectors.
func NewHashEmbedder(dims int) (*HashEmbedder, error) {
	if dims <= 0 || dims > MaxDimensions {
		return nil, fmt.Errorf("dimensions must be in [1, %d], got %d", MaxDimensions, dims)
	}
	return &HashEmbedder{dims: dims}, nil
}

// Dim returns the vector dimension.
func (e *HashEmbedder) Dim() int { return e.dims }

// Embed hashes the words of text into a normalized vector. Text without
// words embeds as the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dims)
	fold := cases.Fold()
	for _, word := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(fold.String(word)))
		sum := h.Sum64()

		idx := sum % uint64(e.dims)
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) {
	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// cosineSimilarity returns a value in [-1, 1]; mismatched lengths and zero
// vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// parseModelParams applies the dimensions default and returns the embedder
// along with the normalized parameters stored with the registration.
func parseModelParams(params *config.Config) (*HashEmbedder, *value.Object, error) {
	dims, err := params.Int("dimensions", DefaultDimensions)
	if err != nil {
		return nil, nil, err
	}
	if dims <= 0 || dims > MaxDimensions {
		return nil, nil, fmt.Errorf("dimensions must be in [1, %d], got %d", MaxDimensions, dims)
	}
	emb, err := NewHashEmbedder(int(dims))
	if err != nil {
		return nil, nil, err
	}
	return emb, value.NewObject(value.O("dimensions", value.Int(dims))), nil
}
