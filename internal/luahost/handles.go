package luahost

import (
	"context"
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/roach88/hostbridge/internal/engine"
	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/stream"
	"github.com/roach88/hostbridge/internal/value"
)

func registerType(l *lua.State, name string, methods []lua.RegistryFunction, meta ...lua.RegistryFunction) {
	lua.NewMetaTable(l, name)
	l.NewTable()
	lua.SetFunctions(l, methods, 0)
	l.SetField(-2, "__index")
	lua.SetFunctions(l, meta, 0)
	l.Pop(1)
}

func registerDatabaseType(l *lua.State, h *host) {
	registerType(l, databaseTypeName, []lua.RegistryFunction{
		{Name: "collection", Function: h.dbCollection},
		{Name: "archive", Function: h.dbArchive},
		{Name: "collections", Function: h.dbCollections},
		{Name: "close", Function: h.dbClose},
	}, lua.RegistryFunction{Name: "__tostring", Function: func(l *lua.State) int {
		checkDatabase(l)
		l.PushString(databaseTypeName)
		return 1
	}})
}

func registerCollectionType(l *lua.State, h *host) {
	registerType(l, collectionTypeName, []lua.RegistryFunction{
		{Name: "name", Function: collName},
		{Name: "upsert_documents", Function: h.collUpsertDocuments},
		{Name: "get_documents", Function: h.collGetDocuments},
		{Name: "register_text_splitter", Function: h.collRegisterTextSplitter},
		{Name: "generate_chunks", Function: h.collGenerateChunks},
		{Name: "register_model", Function: h.collRegisterModel},
		{Name: "generate_embeddings", Function: h.collGenerateEmbeddings},
		{Name: "vector_search", Function: h.collVectorSearch},
		{Name: "stream_search", Function: h.collStreamSearch},
		{Name: "sync_data", Function: h.collSyncData},
	}, lua.RegistryFunction{Name: "__tostring", Function: func(l *lua.State) int {
		c := checkCollection(l)
		l.PushString(fmt.Sprintf("%s(%s)", collectionTypeName, c.Name()))
		return 1
	}})
}

func checkDatabase(l *lua.State) *engine.Database {
	if db, ok := lua.CheckUserData(l, 1, databaseTypeName).(*engine.Database); ok && db != nil {
		return db
	}
	lua.ArgumentError(l, 1, "database expected")
	return nil
}

func checkCollection(l *lua.State) *engine.Collection {
	if c, ok := lua.CheckUserData(l, 1, collectionTypeName).(*engine.Collection); ok && c != nil {
		return c
	}
	lua.ArgumentError(l, 1, "collection expected")
	return nil
}

func (h *host) dbCollection(l *lua.State) int {
	db := checkDatabase(l)
	name := lua.CheckString(l, 2)
	c := call(l, h, func(ctx context.Context) (*engine.Collection, error) {
		return db.CreateOrGetCollection(ctx, name)
	})
	l.PushUserData(c)
	lua.SetMetaTableNamed(l, collectionTypeName)
	return 1
}

func (h *host) dbArchive(l *lua.State) int {
	db := checkDatabase(l)
	name := lua.CheckString(l, 2)
	call(l, h, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, db.ArchiveCollection(ctx, name)
	})
	return 0
}

func (h *host) dbCollections(l *lua.State) int {
	db := checkDatabase(l)
	names := call(l, h, db.ListCollections)
	l.CreateTable(len(names), 0)
	for i, name := range names {
		l.PushString(name)
		l.RawSetInt(-2, i+1)
	}
	return 1
}

func (h *host) dbClose(l *lua.State) int {
	db := checkDatabase(l)
	call(l, h, func(context.Context) (struct{}, error) {
		return struct{}{}, db.Close()
	})
	return 0
}

func collName(l *lua.State) int {
	l.PushString(checkCollection(l).Name())
	return 1
}

// upsert_documents(docs [, text_key [, id_key]]) -> changed count
func (h *host) collUpsertDocuments(l *lua.State) int {
	c := checkCollection(l)
	lua.CheckType(l, 2, lua.TypeTable)
	textKey := lua.OptString(l, 3, engine.DefaultTextKey)
	idKey := lua.OptString(l, 4, engine.DefaultIDKey)

	list, ok := checkValue(l, 2).(value.Array)
	if !ok {
		lua.ArgumentError(l, 2, "list of documents expected")
	}
	docs := make([]*value.Object, len(list))
	for i, elem := range list {
		obj, ok := elem.(*value.Object)
		if !ok {
			raise(l, fault.UnsupportedType([]string{"$", fmt.Sprintf("[%d]", i)}, "document "+elem.Kind().String()))
		}
		docs[i] = obj
	}

	n := call(l, h, func(ctx context.Context) (int, error) {
		return c.UpsertDocuments(ctx, docs, textKey, idKey)
	})
	l.PushInteger(n)
	return 1
}

// get_documents([limit]) -> list of documents
func (h *host) collGetDocuments(l *lua.State) int {
	c := checkCollection(l)
	limit := lua.OptInteger(l, 2, 0)
	docs := call(l, h, func(ctx context.Context) ([]*value.Object, error) {
		return c.GetDocuments(ctx, limit)
	})
	pushObjects(l, docs)
	return 1
}

// register_text_splitter([name [, params]]) -> splitter id
func (h *host) collRegisterTextSplitter(l *lua.State) int {
	c := checkCollection(l)
	name := lua.OptString(l, 2, "recursive_character")
	params := checkParams(l, 3)
	id := call(l, h, func(ctx context.Context) (int64, error) {
		return c.RegisterTextSplitter(ctx, name, params)
	})
	l.PushInteger(int(id))
	return 1
}

// generate_chunks(splitter_id) -> chunk count
func (h *host) collGenerateChunks(l *lua.State) int {
	c := checkCollection(l)
	splitterID := checkID(l, 2)
	n := call(l, h, func(ctx context.Context) (int, error) {
		return c.GenerateChunks(ctx, splitterID)
	})
	l.PushInteger(n)
	return 1
}

// register_model([name [, params]]) -> model id
func (h *host) collRegisterModel(l *lua.State) int {
	c := checkCollection(l)
	name := lua.OptString(l, 2, "hash")
	params := checkParams(l, 3)
	id := call(l, h, func(ctx context.Context) (int64, error) {
		return c.RegisterModel(ctx, name, params)
	})
	l.PushInteger(int(id))
	return 1
}

// generate_embeddings(model_id, splitter_id) -> embedded count
func (h *host) collGenerateEmbeddings(l *lua.State) int {
	c := checkCollection(l)
	modelID := checkID(l, 2)
	splitterID := checkID(l, 3)
	n := call(l, h, func(ctx context.Context) (int, error) {
		return c.GenerateEmbeddings(ctx, modelID, splitterID)
	})
	l.PushInteger(n)
	return 1
}

// vector_search(query, params, model_id, splitter_id) -> list of results
func (h *host) collVectorSearch(l *lua.State) int {
	c := checkCollection(l)
	query := lua.CheckString(l, 2)
	params := checkParams(l, 3)
	modelID := checkID(l, 4)
	splitterID := checkID(l, 5)
	results := call(l, h, func(ctx context.Context) ([]*value.Object, error) {
		return c.VectorSearch(ctx, query, params, modelID, splitterID)
	})
	pushObjects(l, results)
	return 1
}

// stream_search(query, params, model_id, splitter_id) -> stream
func (h *host) collStreamSearch(l *lua.State) int {
	c := checkCollection(l)
	query := lua.CheckString(l, 2)
	params := checkParams(l, 3)
	modelID := checkID(l, 4)
	splitterID := checkID(l, 5)

	s := stream.NewValues(c.StreamSearch(h.ctx, query, params, modelID, splitterID))
	l.PushUserData(s)
	lua.SetMetaTableNamed(l, streamTypeName)
	return 1
}

// sync_data() -> {collection, documents, chunks, embeddings}
func (h *host) collSyncData(l *lua.State) int {
	c := checkCollection(l)
	status := call(l, h, c.PipelineSyncData)
	pushValue(l, status)
	return 1
}

func pushObjects(l *lua.State, objs []*value.Object) {
	arr := make(value.Array, len(objs))
	for i, o := range objs {
		arr[i] = o
	}
	pushValue(l, arr)
}
