package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Collection is a named group of documents.
type Collection struct {
	ID     string
	Name   string
	Active bool
}

// CreateCollection returns the active collection called name, creating it
// with the given id if none exists. created reports whether a row was added.
func (s *Store) CreateCollection(ctx context.Context, id, name string) (c Collection, created bool, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := activeCollection(ctx, tx, name)
		if err == nil {
			c = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO collections (id, name, active, seq)
			VALUES (?, ?, 1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM collections))
		`, id, name)
		if err != nil {
			return fmt.Errorf("insert collection: %w", err)
		}

		c = Collection{ID: id, Name: name, Active: true}
		created = true
		return nil
	})
	if err != nil {
		return Collection{}, false, fmt.Errorf("create collection %q: %w", name, err)
	}
	return c, created, nil
}

// ActiveCollection returns the active collection called name.
// Returns ErrNotFound if there is none.
func (s *Store) ActiveCollection(ctx context.Context, name string) (Collection, error) {
	return activeCollection(ctx, s.db, name)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func activeCollection(ctx context.Context, q queryer, name string) (Collection, error) {
	var c Collection
	err := q.QueryRowContext(ctx, `
		SELECT id, name, active FROM collections
		WHERE name = ? AND active = 1
	`, name).Scan(&c.ID, &c.Name, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Collection{}, ErrNotFound
	}
	if err != nil {
		return Collection{}, fmt.Errorf("query collection: %w", err)
	}
	return c, nil
}

// ArchiveCollection deactivates the active collection called name. Its data
// is kept; a later CreateCollection with the same name starts empty.
// Returns ErrNotFound if there is no active collection with that name.
func (s *Store) ArchiveCollection(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE collections SET active = 0
		WHERE name = ? AND active = 1
	`, name)
	if err != nil {
		return fmt.Errorf("archive collection %q: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive collection %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("archive collection %q: %w", name, ErrNotFound)
	}
	return nil
}

// ListCollections returns the names of active collections, sorted.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM collections
		WHERE active = 1
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return names, nil
}
