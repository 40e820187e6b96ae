// Package luahost exposes the document engine to Lua scripts.
//
// Open registers a global table with one constructor:
//
//	local db = hostbridge.Database("docs.db")
//	local papers = db:collection("papers")
//	papers:upsert_documents({ { id = "a", text = "hello world" } })
//	local splitter = papers:register_text_splitter("recursive_character", { chunk_size = 200 })
//	papers:generate_chunks(splitter)
//	local model = papers:register_model("hash", { dimensions = 64 })
//	papers:generate_embeddings(model, splitter)
//	for r in papers:stream_search("hello", { top_k = 3 }, model, splitter) do
//		print(r.score, r.chunk)
//	end
//
// Arguments are converted Lua -> dynamic value on the calling goroutine;
// every native call then runs on the process runtime through
// executor.BlockOn and its result is converted back.
//
// # Value mapping
//
// Lua has a single number type. Numbers with an integral value in int64
// range become Int, others Float; NaN and Inf are rejected. A table with
// keys 1..n is an Array and a table with only string keys is an Object
// whose keys are sorted, since Lua tables are unordered. An empty table is
// an empty Array. Functions, userdata, threads, mixed or sparse keys are
// rejected with UNSUPPORTED_TYPE.
package luahost
