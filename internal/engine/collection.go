package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/logging"
	"github.com/roach88/hostbridge/internal/store"
	"github.com/roach88/hostbridge/internal/value"
)

// Default document field names.
const (
	DefaultTextKey = "text"
	DefaultIDKey   = "id"
)

// Collection is a handle on one collection of a Database.
type Collection struct {
	db   *Database
	id   string
	name string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// ID returns the collection's storage id.
func (c *Collection) ID() string { return c.id }

// UpsertDocuments inserts or updates docs and returns how many were added or
// changed. Each document needs a string field textKey; its key is field
// idKey (string or integer), generated and written back into the stored
// body when absent. Empty key names select "text" and "id".
func (c *Collection) UpsertDocuments(ctx context.Context, docs []*value.Object, textKey, idKey string) (int, error) {
	if err := c.db.check(); err != nil {
		return 0, err
	}
	if textKey == "" {
		textKey = DefaultTextKey
	}
	if idKey == "" {
		idKey = DefaultIDKey
	}

	rows := make([]store.Document, 0, len(docs))
	for i, doc := range docs {
		row, err := c.document(i, doc, textKey, idKey)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	n, err := c.db.store.UpsertDocuments(ctx, c.id, rows)
	if err != nil {
		return 0, err
	}
	logging.Logger().Debug("documents upserted",
		zap.String("collection", c.name),
		zap.Int("received", len(docs)),
		zap.Int("changed", n),
	)
	return n, nil
}

func (c *Collection) document(i int, doc *value.Object, textKey, idKey string) (store.Document, error) {
	if doc == nil {
		return store.Document{}, invalidDocument(c.name, i, "document %d is null", i)
	}

	tv, ok := doc.Get(textKey)
	if !ok {
		return store.Document{}, invalidDocument(c.name, i, "document %d has no %q field", i, textKey)
	}
	text, ok := tv.(value.String)
	if !ok {
		return store.Document{}, invalidDocument(c.name, i, "document %d field %q is %s, want string", i, textKey, tv.Kind())
	}

	body := doc.Clone()
	var key string
	idv, ok := doc.Get(idKey)
	switch id := idv.(type) {
	case value.String:
		if id == "" {
			return store.Document{}, invalidDocument(c.name, i, "document %d field %q is empty", i, idKey)
		}
		key = string(id)
	case value.Int:
		key = strconv.FormatInt(int64(id), 10)
	case value.Null:
		ok = false
	default:
		if ok {
			return store.Document{}, invalidDocument(c.name, i, "document %d field %q is %s, want string or integer", i, idKey, idv.Kind())
		}
	}
	if !ok {
		key = c.db.ids.Generate()
		body.Set(idKey, value.String(key))
	}

	fp, err := value.Fingerprint(value.DomainDocument, body)
	if err != nil {
		return store.Document{}, fmt.Errorf("document %d: %w", i, err)
	}
	return store.Document{Key: key, Text: string(text), Body: body, Fingerprint: fp}, nil
}

// GetDocuments returns stored document bodies in first-insert order.
// A limit of zero or less returns all of them.
func (c *Collection) GetDocuments(ctx context.Context, limit int) ([]*value.Object, error) {
	if err := c.db.check(); err != nil {
		return nil, err
	}
	docs, err := c.db.store.ReadDocuments(ctx, c.id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*value.Object, len(docs))
	for i, d := range docs {
		out[i] = d.Body
	}
	return out, nil
}

// RegisterTextSplitter records a splitter with params chunk_size (default
// 1500) and chunk_overlap (default 40). Registering the same name with
// equivalent params returns the same id.
func (c *Collection) RegisterTextSplitter(ctx context.Context, name string, params *config.Config) (int64, error) {
	if err := c.db.check(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, invalidParams(c.name, "name", errors.New("splitter name is empty"))
	}
	p, param, err := parseSplitterParams(params)
	if err != nil {
		return 0, invalidParams(c.name, param, err)
	}
	return c.register(ctx, c.db.store.RegisterSplitter, "splitter", name, p.object())
}

// RegisterModel records an embedding model with param dimensions (default
// 64). Registering the same name with equivalent params returns the same id.
func (c *Collection) RegisterModel(ctx context.Context, name string, params *config.Config) (int64, error) {
	if err := c.db.check(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, invalidParams(c.name, "name", errors.New("model name is empty"))
	}
	_, normalized, err := parseModelParams(params)
	if err != nil {
		return 0, invalidParams(c.name, "dimensions", err)
	}
	return c.register(ctx, c.db.store.RegisterModel, "model", name, normalized)
}

type registerFunc func(ctx context.Context, collectionID string, reg store.Registration) (int64, error)

func (c *Collection) register(ctx context.Context, fn registerFunc, kind, name string, params *value.Object) (int64, error) {
	fp, err := value.Fingerprint(value.DomainConfig, params)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	id, err := fn(ctx, c.id, store.Registration{Name: name, Params: params, Fingerprint: fp})
	if err != nil {
		return 0, err
	}
	logging.Logger().Debug(kind+" registered",
		zap.String("collection", c.name),
		zap.String("name", name),
		zap.Int64("id", id),
	)
	return id, nil
}

func (c *Collection) splitter(ctx context.Context, id int64) (splitterParams, error) {
	reg, err := c.db.store.Splitter(ctx, c.id, id)
	if errors.Is(err, store.ErrNotFound) {
		return splitterParams{}, notFound(c.name, fmt.Sprintf("splitter %d", id))
	}
	if err != nil {
		return splitterParams{}, err
	}
	cfg, err := config.FromValue(reg.Params)
	if err != nil {
		return splitterParams{}, err
	}
	p, _, err := parseSplitterParams(cfg)
	return p, err
}

func (c *Collection) model(ctx context.Context, id int64) (Embedder, error) {
	reg, err := c.db.store.Model(ctx, c.id, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(c.name, fmt.Sprintf("model %d", id))
	}
	if err != nil {
		return nil, err
	}
	cfg, err := config.FromValue(reg.Params)
	if err != nil {
		return nil, err
	}
	emb, _, err := parseModelParams(cfg)
	if err != nil {
		return nil, err
	}
	return emb, nil
}

// GenerateChunks splits every document with the splitter and returns the
// number of chunks now stored for it. Chunks whose text is unchanged keep
// their embeddings.
func (c *Collection) GenerateChunks(ctx context.Context, splitterID int64) (int, error) {
	if err := c.db.check(); err != nil {
		return 0, err
	}
	p, err := c.splitter(ctx, splitterID)
	if err != nil {
		return 0, err
	}

	docs, err := c.db.store.ReadDocuments(ctx, c.id, 0)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, doc := range docs {
		chunks := splitText(doc.Text, p)
		if err := c.db.store.ReplaceChunks(ctx, c.id, splitterID, doc.Key, chunks); err != nil {
			return 0, err
		}
		total += len(chunks)
	}

	logging.Logger().Debug("chunks generated",
		zap.String("collection", c.name),
		zap.Int64("splitter", splitterID),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", total),
	)
	return total, nil
}

// GenerateEmbeddings embeds every chunk of the splitter that has no vector
// for the model yet and returns how many were embedded.
func (c *Collection) GenerateEmbeddings(ctx context.Context, modelID, splitterID int64) (int, error) {
	if err := c.db.check(); err != nil {
		return 0, err
	}
	emb, err := c.model(ctx, modelID)
	if err != nil {
		return 0, err
	}
	if _, err := c.splitter(ctx, splitterID); err != nil {
		return 0, err
	}

	missing, err := c.db.store.ChunksMissingEmbedding(ctx, c.id, splitterID, modelID)
	if err != nil {
		return 0, err
	}
	if len(missing) == 0 {
		return 0, nil
	}

	out := make([]store.Embedding, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, chunk := range missing {
		g.Go(func() error {
			vec, err := emb.Embed(gctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", chunk.ID, err)
			}
			out[i] = store.Embedding{ChunkID: chunk.ID, Vector: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := c.db.store.WriteEmbeddings(ctx, modelID, out); err != nil {
		return 0, err
	}
	logging.Logger().Debug("embeddings generated",
		zap.String("collection", c.name),
		zap.Int64("model", modelID),
		zap.Int64("splitter", splitterID),
		zap.Int("embeddings", len(out)),
	)
	return len(out), nil
}

// PipelineSyncData reports the collection's document, chunk and embedding
// counts.
func (c *Collection) PipelineSyncData(ctx context.Context) (*value.Object, error) {
	if err := c.db.check(); err != nil {
		return nil, err
	}
	counts, err := c.db.store.CountContents(ctx, c.id)
	if err != nil {
		return nil, err
	}
	return value.NewObject(
		value.O("collection", value.String(c.name)),
		value.O("documents", value.Int(counts.Documents)),
		value.O("chunks", value.Int(counts.Chunks)),
		value.O("embeddings", value.Int(counts.Embeddings)),
	), nil
}
