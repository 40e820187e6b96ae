// Package harness runs YAML scenarios against a hostbridge database.
//
// A scenario drives one collection through the document pipeline, records
// every step in a trace, and checks the final state with assertions. Each
// run gets a fresh SQLite file and sequential document ids, so traces are
// stable enough for golden comparison.
//
// # Scenario Format
//
//	name: fox_search
//	description: "Exact queries rank their own document first"
//	collection: papers
//	setup:
//	  - op: upsert
//	    args:
//	      documents:
//	        - { id: fox, text: "the quick brown fox" }
//	flow:
//	  - op: register_text_splitter
//	    args: { params: { chunk_size: 100 } }
//	  - op: generate_chunks
//	    expect: { result: 1 }
//	  - op: vector_search
//	    args: { query: "missing", params: { top_k: 0 } }
//	    expect: { error: INVALID_PARAMS }
//	assertions:
//	  - type: sync_status
//	    expect: { documents: 1, chunks: 1 }
//	  - type: search_order
//	    query: "quick brown fox"
//	    documents: [fox]
//
// # Operations
//
//   - upsert: args documents, text_key, id_key; result is the change count
//   - get_documents: args limit; result is the stored document bodies
//   - register_text_splitter, register_model: args name, params; result is the id
//   - generate_chunks: args splitter; result is the chunk count
//   - generate_embeddings: args model, splitter; result is the embedding count
//   - vector_search: args query, params, model, splitter; result lists
//     {chunk, document} where document is the hit's "id" field
//   - sync_data: result is the collection's document, chunk and embedding counts
//   - archive: archives the scenario collection
//
// Splitter and model ids default to the most recent registration.
//
// # Assertion Types
//
//   - sync_status: subset match against sync_data
//   - search_order: the leading hits of a query belong to the listed documents
//   - op_count: an operation appears exactly N times in the trace
//   - collections: the active collection names, in order
//   - document: the stored document with the given id matches a subset
package harness
