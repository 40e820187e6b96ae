package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/logging"
	"github.com/roach88/hostbridge/internal/stream"
	"github.com/roach88/hostbridge/internal/value"
)

// DefaultTopK is the number of search results returned when top_k is unset.
const DefaultTopK = 5

type scored struct {
	score   float64
	chunkID int64
	text    string
	doc     *value.Object
}

// VectorSearch embeds query with the model and returns the top_k (default
// 5) best-matching chunks of the splitter. Each result is an object with
// score, chunk and document fields, ordered by score descending and then by
// chunk id.
func (c *Collection) VectorSearch(ctx context.Context, query string, params *config.Config, modelID, splitterID int64) ([]*value.Object, error) {
	if err := c.db.check(); err != nil {
		return nil, err
	}
	topK, err := params.Int("top_k", DefaultTopK)
	if err != nil {
		return nil, invalidParams(c.name, "top_k", err)
	}
	if topK <= 0 {
		return nil, invalidParams(c.name, "top_k", fmt.Errorf("top_k must be positive, got %d", topK))
	}

	emb, err := c.model(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if _, err := c.splitter(ctx, splitterID); err != nil {
		return nil, err
	}

	qvec, err := emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := c.db.store.ReadEmbeddedChunks(ctx, c.id, splitterID, modelID)
	if err != nil {
		return nil, err
	}

	hits := make([]scored, len(chunks))
	for i, ch := range chunks {
		hits[i] = scored{
			score:   cosineSimilarity(qvec, ch.Vector),
			chunkID: ch.ID,
			text:    ch.Text,
			doc:     ch.Document,
		}
	}
	slices.SortFunc(hits, func(a, b scored) int {
		if a.score != b.score {
			return cmp.Compare(b.score, a.score)
		}
		return cmp.Compare(a.chunkID, b.chunkID)
	})
	if int64(len(hits)) > topK {
		hits = hits[:topK]
	}

	out := make([]*value.Object, len(hits))
	for i, h := range hits {
		score, err := value.NewFloat(h.score)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", h.chunkID, err)
		}
		out[i] = value.NewObject(
			value.O("score", score),
			value.O("chunk", value.String(h.text)),
			value.O("document", h.doc),
		)
	}

	logging.Logger().Debug("vector search",
		zap.String("collection", c.name),
		zap.Int64("model", modelID),
		zap.Int64("splitter", splitterID),
		zap.Int("candidates", len(chunks)),
		zap.Int("results", len(out)),
	)
	return out, nil
}

// StreamSearch runs VectorSearch in a producer goroutine and yields the
// results one at a time. The search starts on the first pull; a failed
// search surfaces as the sequence's error.
func (c *Collection) StreamSearch(ctx context.Context, query string, params *config.Config, modelID, splitterID int64) stream.Sequence[value.Value] {
	return stream.Produce(ctx, func(ctx context.Context, emit func(value.Value) error) error {
		results, err := c.VectorSearch(ctx, query, params, modelID, splitterID)
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := emit(r); err != nil {
				return err
			}
		}
		return nil
	})
}
