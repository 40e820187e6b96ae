package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/roach88/hostbridge/internal/logging"
	"github.com/roach88/hostbridge/internal/store"
)

// Database is an open document store. It is safe for concurrent use.
type Database struct {
	store  *store.Store
	ids    IDGenerator
	path   string
	closed atomic.Bool
}

// Option configures a Database.
type Option func(*Database)

// WithIDGenerator sets the generator for collection ids and default
// document ids. The default is UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(d *Database) {
		d.ids = gen
	}
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	d := &Database{store: s, ids: UUIDv7Generator{}, path: path}
	for _, opt := range opts {
		opt(d)
	}

	logging.Logger().Debug("database opened", zap.String("path", path))
	return d, nil
}

// Close releases the database. Closing twice is a no-op.
func (d *Database) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	logging.Logger().Debug("database closed", zap.String("path", d.path))
	return d.store.Close()
}

func (d *Database) check() error {
	if d.closed.Load() {
		return &Error{Code: ErrCodeClosed, Message: "database is closed: " + d.path}
	}
	return nil
}

// CreateOrGetCollection returns the active collection called name, creating
// it when none exists.
func (d *Database) CreateOrGetCollection(ctx context.Context, name string) (*Collection, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, invalidParams("", "name", errors.New("collection name is empty"))
	}

	c, err := d.store.ActiveCollection(ctx, name)
	if err == nil {
		return &Collection{db: d, id: c.ID, name: c.Name}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	c, created, err := d.store.CreateCollection(ctx, d.ids.Generate(), name)
	if err != nil {
		return nil, err
	}
	if created {
		logging.Logger().Info("collection created",
			zap.String("collection", name),
			zap.String("id", c.ID),
		)
	}
	return &Collection{db: d, id: c.ID, name: c.Name}, nil
}

// ArchiveCollection deactivates the collection called name. Its contents are
// kept and the name becomes free for a new collection.
func (d *Database) ArchiveCollection(ctx context.Context, name string) error {
	if err := d.check(); err != nil {
		return err
	}
	err := d.store.ArchiveCollection(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(name, "collection")
	}
	if err != nil {
		return err
	}
	logging.Logger().Info("collection archived", zap.String("collection", name))
	return nil
}

// ListCollections returns active collection names in sorted order.
func (d *Database) ListCollections(ctx context.Context) ([]string, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	return d.store.ListCollections(ctx)
}
