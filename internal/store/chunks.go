package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/hostbridge/internal/value"
)

// Chunk is a piece of a document produced by a splitter.
type Chunk struct {
	ID     int64
	DocKey string
	Index  int
	Text   string
}

// EmbeddedChunk is a chunk joined with its embedding and document.
type EmbeddedChunk struct {
	Chunk
	Vector   []float32
	Document *value.Object
}

// Counts summarizes a collection's contents.
type Counts struct {
	Documents  int
	Chunks     int
	Embeddings int
}

// ReplaceChunks stores the chunks of one document for a splitter. Existing
// chunks with unchanged text keep their id and embeddings; chunks past the
// new end are deleted.
func (s *Store) ReplaceChunks(ctx context.Context, collectionID string, splitterID int64, docKey string, texts []string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i, text := range texts {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO chunks (collection_id, doc_key, splitter_id, chunk_index, text)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(collection_id, doc_key, splitter_id, chunk_index) DO UPDATE SET
					text = excluded.text
				WHERE chunks.text != excluded.text
			`, collectionID, docKey, splitterID, i, text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			DELETE FROM chunks
			WHERE collection_id = ? AND doc_key = ? AND splitter_id = ? AND chunk_index >= ?
		`, collectionID, docKey, splitterID, len(texts))
		if err != nil {
			return fmt.Errorf("trim chunks: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace chunks of %q: %w", docKey, err)
	}
	return nil
}

// ReadChunks returns a collection's chunks for a splitter, ordered by id.
func (s *Store) ReadChunks(ctx context.Context, collectionID string, splitterID int64) ([]Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT id, doc_key, chunk_index, text
		FROM chunks
		WHERE collection_id = ? AND splitter_id = ?
		ORDER BY id ASC
	`, collectionID, splitterID)
}

// ChunksMissingEmbedding returns chunks of a splitter that have no
// embedding for the model yet, ordered by id.
func (s *Store) ChunksMissingEmbedding(ctx context.Context, collectionID string, splitterID, modelID int64) ([]Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT c.id, c.doc_key, c.chunk_index, c.text
		FROM chunks c
		LEFT JOIN embeddings e ON e.chunk_id = c.id AND e.model_id = ?
		WHERE c.collection_id = ? AND c.splitter_id = ? AND e.chunk_id IS NULL
		ORDER BY c.id ASC
	`, modelID, collectionID, splitterID)
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	chunks := []Chunk{}
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocKey, &c.Index, &c.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}

// Embedding pairs a chunk with its vector.
type Embedding struct {
	ChunkID int64
	Vector  []float32
}

// WriteEmbeddings stores vectors for a model in one transaction.
// Rewriting a chunk's embedding replaces it.
func (s *Store) WriteEmbeddings(ctx context.Context, modelID int64, embeddings []Embedding) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO embeddings (chunk_id, model_id, vector)
			VALUES (?, ?, ?)
			ON CONFLICT(chunk_id, model_id) DO UPDATE SET vector = excluded.vector
		`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, e := range embeddings {
			blob, err := encodeVector(e.Vector)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", e.ChunkID, err)
			}
			if _, err := stmt.ExecContext(ctx, e.ChunkID, modelID, blob); err != nil {
				return fmt.Errorf("chunk %d: %w", e.ChunkID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write embeddings: %w", err)
	}
	return nil
}

// ReadEmbeddedChunks returns every chunk of a splitter that has an embedding
// for the model, with its document, ordered by chunk id.
func (s *Store) ReadEmbeddedChunks(ctx context.Context, collectionID string, splitterID, modelID int64) ([]EmbeddedChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.doc_key, c.chunk_index, c.text, e.vector, d.body
		FROM chunks c
		JOIN embeddings e ON e.chunk_id = c.id AND e.model_id = ?
		JOIN documents d ON d.collection_id = c.collection_id AND d.doc_key = c.doc_key
		WHERE c.collection_id = ? AND c.splitter_id = ?
		ORDER BY c.id ASC
	`, modelID, collectionID, splitterID)
	if err != nil {
		return nil, fmt.Errorf("query embedded chunks: %w", err)
	}
	defer rows.Close()

	out := []EmbeddedChunk{}
	for rows.Next() {
		var (
			ec   EmbeddedChunk
			blob []byte
			body string
		)
		if err := rows.Scan(&ec.ID, &ec.DocKey, &ec.Index, &ec.Text, &blob, &body); err != nil {
			return nil, fmt.Errorf("scan embedded chunk: %w", err)
		}
		if ec.Vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", ec.ID, err)
		}
		if ec.Document, err = unmarshalObject(body); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", ec.ID, err)
		}
		out = append(out, ec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedded chunks: %w", err)
	}
	return out, nil
}

// CountContents returns document, chunk and embedding counts for a collection.
func (s *Store) CountContents(ctx context.Context, collectionID string) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents WHERE collection_id = ?),
			(SELECT COUNT(*) FROM chunks WHERE collection_id = ?),
			(SELECT COUNT(*) FROM embeddings e JOIN chunks c ON c.id = e.chunk_id WHERE c.collection_id = ?)
	`, collectionID, collectionID, collectionID).Scan(&c.Documents, &c.Chunks, &c.Embeddings)
	if err != nil {
		return Counts{}, fmt.Errorf("count contents: %w", err)
	}
	return c, nil
}
