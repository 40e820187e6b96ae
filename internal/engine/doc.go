// Package engine implements the document store behind the host bridge.
//
// A Database holds named collections. Each collection stores documents,
// text splitters, embedding models, chunks and chunk embeddings in SQLite
// through package store.
//
// # Pipeline
//
//	db, _ := engine.Open(ctx, "docs.db")
//	coll, _ := db.CreateOrGetCollection(ctx, "papers")
//	coll.UpsertDocuments(ctx, docs, "text", "id")
//	splitter, _ := coll.RegisterTextSplitter(ctx, "recursive_character", config.New())
//	coll.GenerateChunks(ctx, splitter)
//	model, _ := coll.RegisterModel(ctx, "hash", config.New())
//	coll.GenerateEmbeddings(ctx, model, splitter)
//	results, _ := coll.VectorSearch(ctx, "query", config.New(), model, splitter)
//
// Every step is idempotent. Re-upserting an unchanged document, registering
// the same splitter or model parameters, and regenerating chunks or
// embeddings leave stored state as it was.
//
// # Embeddings
//
// HashEmbedder is a deterministic feature-hashing embedder, so search
// results are reproducible without an external model.
package engine
