package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hostbridge/internal/value"
)

// Registration is a registered splitter or model.
type Registration struct {
	ID          int64
	Name        string
	Params      *value.Object
	Fingerprint string
}

// Registry tables. Only these constants are ever interpolated into SQL.
const (
	tableSplitters = "splitters"
	tableModels    = "models"
)

// RegisterSplitter records a text splitter for a collection. Registering the
// same name and parameters again returns the existing id.
func (s *Store) RegisterSplitter(ctx context.Context, collectionID string, reg Registration) (int64, error) {
	return s.register(ctx, tableSplitters, collectionID, reg)
}

// RegisterModel records an embedding model for a collection. Registering the
// same name and parameters again returns the existing id.
func (s *Store) RegisterModel(ctx context.Context, collectionID string, reg Registration) (int64, error) {
	return s.register(ctx, tableModels, collectionID, reg)
}

// Splitter returns a collection's splitter by id.
func (s *Store) Splitter(ctx context.Context, collectionID string, id int64) (Registration, error) {
	return s.registration(ctx, tableSplitters, collectionID, id)
}

// Model returns a collection's model by id.
func (s *Store) Model(ctx context.Context, collectionID string, id int64) (Registration, error) {
	return s.registration(ctx, tableModels, collectionID, id)
}

// register inserts or finds a registration in one transaction, mirroring
// the insert-or-select idempotency used for every write.
func (s *Store) register(ctx context.Context, table, collectionID string, reg Registration) (int64, error) {
	params, err := marshalParams(reg.Params)
	if err != nil {
		return 0, fmt.Errorf("register %s: %w", table, err)
	}

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO `+table+` (collection_id, name, params, fingerprint)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(collection_id, name, fingerprint) DO NOTHING
		`, collectionID, reg.Name, params, reg.Fingerprint)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			SELECT id FROM `+table+`
			WHERE collection_id = ? AND name = ? AND fingerprint = ?
		`, collectionID, reg.Name, reg.Fingerprint).Scan(&id)
		if err != nil {
			return fmt.Errorf("select id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("register %s %q: %w", table, reg.Name, err)
	}
	return id, nil
}

func (s *Store) registration(ctx context.Context, table, collectionID string, id int64) (Registration, error) {
	var (
		reg    Registration
		params string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, params, fingerprint FROM `+table+`
		WHERE collection_id = ? AND id = ?
	`, collectionID, id).Scan(&reg.ID, &reg.Name, &params, &reg.Fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return Registration{}, fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return Registration{}, fmt.Errorf("query %s %d: %w", table, id, err)
	}

	if reg.Params, err = unmarshalObject(params); err != nil {
		return Registration{}, fmt.Errorf("%s %d: %w", table, id, err)
	}
	return reg, nil
}
