package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/hostbridge/internal/value"
)

// Document is one stored document. Body is the full document as upserted.
type Document struct {
	Key         string
	Text        string
	Body        *value.Object
	Fingerprint string
}

// UpsertDocuments writes docs into a collection in one transaction.
// A document whose fingerprint is unchanged is left alone, so the returned
// count only includes new or modified documents.
func (s *Store) UpsertDocuments(ctx context.Context, collectionID string, docs []Document) (int, error) {
	changed := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO documents (collection_id, doc_key, text, body, fingerprint)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(collection_id, doc_key) DO UPDATE SET
				text = excluded.text,
				body = excluded.body,
				fingerprint = excluded.fingerprint
			WHERE documents.fingerprint != excluded.fingerprint
		`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, doc := range docs {
			body, err := marshalObject(doc.Body)
			if err != nil {
				return fmt.Errorf("document %q: %w", doc.Key, err)
			}

			res, err := stmt.ExecContext(ctx, collectionID, doc.Key, doc.Text, body, doc.Fingerprint)
			if err != nil {
				return fmt.Errorf("document %q: %w", doc.Key, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("document %q: %w", doc.Key, err)
			}
			changed += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upsert documents: %w", err)
	}
	return changed, nil
}

// ReadDocuments returns a collection's documents in first-insert order.
// A limit of zero or less returns all of them.
func (s *Store) ReadDocuments(ctx context.Context, collectionID string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_key, text, body, fingerprint
		FROM documents
		WHERE collection_id = ?
		ORDER BY seq ASC
		LIMIT ?
	`, collectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			doc  Document
			body string
		)
		if err := rows.Scan(&doc.Key, &doc.Text, &body, &doc.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if doc.Body, err = unmarshalObject(body); err != nil {
			return nil, fmt.Errorf("document %q: %w", doc.Key, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
