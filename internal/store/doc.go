// Package store provides SQLite-backed durable storage for the document
// engine.
//
// Tables:
//   - collections: named document groups; archiving keeps the rows
//   - documents: full document bodies with a content fingerprint
//   - splitters, models: registrations deduplicated by parameter fingerprint
//   - chunks: per-splitter document pieces
//   - embeddings: per-model chunk vectors
//
// # Patterns
//
// Idempotent writes
//   - Document upserts skip rows whose fingerprint is unchanged
//   - Registrations use ON CONFLICT DO NOTHING followed by a lookup
//   - Chunk text changes drop stale embeddings via trigger
//
// Deterministic reads
//   - Every list query orders by an insertion sequence or id
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Fingerprints are computed by the caller with value.Fingerprint (RFC 8785
// canonical JSON and SHA-256 with domain separation).
package store
