package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/engine"
	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/logging"
	"github.com/roach88/hostbridge/internal/testutil"
	"github.com/roach88/hostbridge/internal/value"
)

// errInvalidArgs marks malformed step arguments. These abort the run instead
// of being reported as a step outcome.
var errInvalidArgs = errors.New("invalid step args")

// Harness is the scenario execution engine.
// It runs one scenario against one collection with deterministic ids.
type Harness struct {
	db       *engine.Database
	coll     *engine.Collection
	seq      *testutil.Sequence
	splitter int64 // most recent splitter registration
	model    int64 // most recent model registration
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh SQLite file that is removed afterwards.
// Execution flow:
//  1. Open the database and create the scenario collection
//  2. Execute setup steps (any failure aborts)
//  3. Execute flow steps, checking expect clauses
//  4. Evaluate assertions and capture the final sync_data
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "hostbridge-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	db, err := engine.Open(ctx, filepath.Join(dir, "scenario.db"),
		engine.WithIDGenerator(testutil.NewSequenceGenerator(scenario.IDPrefix)))
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario database: %w", err)
	}
	defer db.Close()

	name := scenario.Collection
	if name == "" {
		name = DefaultCollection
	}
	coll, err := db.CreateOrGetCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	h := &Harness{
		db:    db,
		coll:  coll,
		seq:  testutil.NewSequence(),
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		if _, err := h.run(ctx, step, result); err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
	}

	for i, step := range scenario.Flow {
		out, err := h.run(ctx, step, result)
		if errors.Is(err, errInvalidArgs) {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
		if msg := checkExpect(step, out, err); msg != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}

	actx := &AssertionContext{
		Ctx:        ctx,
		DB:         db,
		Collection: coll,
		Model:      h.model,
		Splitter:   h.splitter,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	if !isArchived(ctx, db, name) {
		state, err := coll.PipelineSyncData(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read final state: %w", err)
		}
		for k, v := range state.All() {
			result.State[k] = bridge.ToHost(v)
		}
	}

	logging.Logger().Debug("scenario finished",
		zap.String("scenario", scenario.Name),
		zap.Bool("pass", result.Pass),
		zap.Int("steps", len(result.Trace)),
	)
	return result, nil
}

// run executes step and appends it to the trace. Argument errors are not
// traced.
func (h *Harness) run(ctx context.Context, step Step, result *Result) (any, error) {
	out, err := h.execute(ctx, step)
	if errors.Is(err, errInvalidArgs) {
		return nil, err
	}

	ev := TraceEvent{
		Seq:  h.seq.Next(),
		Op:   step.Op,
		Args: step.Args,
	}
	if err != nil {
		ev.Error = errorCode(err)
	} else {
		ev.Result = out
	}
	result.AddTrace(ev)
	return out, err
}

func (h *Harness) execute(ctx context.Context, step Step) (any, error) {
	args := step.Args
	switch step.Op {
	case OpUpsert:
		docs, err := argDocuments(args)
		if err != nil {
			return nil, err
		}
		textKey, err := argString(args, "text_key", engine.DefaultTextKey)
		if err != nil {
			return nil, err
		}
		idKey, err := argString(args, "id_key", engine.DefaultIDKey)
		if err != nil {
			return nil, err
		}
		return h.coll.UpsertDocuments(ctx, docs, textKey, idKey)

	case OpGetDocuments:
		limit, err := argInt(args, "limit", 0)
		if err != nil {
			return nil, err
		}
		docs, err := h.coll.GetDocuments(ctx, int(limit))
		if err != nil {
			return nil, err
		}
		out := make([]any, len(docs))
		for i, d := range docs {
			out[i] = bridge.ToHost(d)
		}
		return out, nil

	case OpRegisterSplitter:
		name, params, err := argRegistration(args, "recursive_character")
		if err != nil {
			return nil, err
		}
		id, err := h.coll.RegisterTextSplitter(ctx, name, params)
		if err != nil {
			return nil, err
		}
		h.splitter = id
		return id, nil

	case OpRegisterModel:
		name, params, err := argRegistration(args, "hash")
		if err != nil {
			return nil, err
		}
		id, err := h.coll.RegisterModel(ctx, name, params)
		if err != nil {
			return nil, err
		}
		h.model = id
		return id, nil

	case OpGenerateChunks:
		splitter, err := argInt(args, "splitter", h.splitter)
		if err != nil {
			return nil, err
		}
		return h.coll.GenerateChunks(ctx, splitter)

	case OpGenerateEmbeddings:
		model, err := argInt(args, "model", h.model)
		if err != nil {
			return nil, err
		}
		splitter, err := argInt(args, "splitter", h.splitter)
		if err != nil {
			return nil, err
		}
		return h.coll.GenerateEmbeddings(ctx, model, splitter)

	case OpVectorSearch:
		query, err := argString(args, "query", "")
		if err != nil {
			return nil, err
		}
		params, err := argConfig(args, "params")
		if err != nil {
			return nil, err
		}
		model, err := argInt(args, "model", h.model)
		if err != nil {
			return nil, err
		}
		splitter, err := argInt(args, "splitter", h.splitter)
		if err != nil {
			return nil, err
		}
		hits, err := h.coll.VectorSearch(ctx, query, params, model, splitter)
		if err != nil {
			return nil, err
		}
		return searchHits(hits), nil

	case OpSyncData:
		state, err := h.coll.PipelineSyncData(ctx)
		if err != nil {
			return nil, err
		}
		return bridge.ToHost(state), nil

	case OpArchive:
		return nil, h.db.ArchiveCollection(ctx, h.coll.Name())

	default:
		return nil, fmt.Errorf("%w: unknown op %q", errInvalidArgs, step.Op)
	}
}

// searchHits reduces search results to {chunk, document id} pairs. Scores
// are left out so traces stay readable.
func searchHits(hits []*value.Object) []any {
	out := make([]any, len(hits))
	for i, hit := range hits {
		entry := bridge.NewDict()
		if chunk, ok := hit.Get("chunk"); ok {
			entry.Set("chunk", bridge.ToHost(chunk))
		}
		entry.Set("document", documentID(hit))
		out[i] = entry
	}
	return out
}

// documentID returns the "id" field of a search hit's document, or nil.
func documentID(hit *value.Object) any {
	doc, ok := hit.Get("document")
	if !ok {
		return nil
	}
	obj, ok := doc.(*value.Object)
	if !ok {
		return nil
	}
	id, ok := obj.Get(engine.DefaultIDKey)
	if !ok {
		return nil
	}
	return bridge.ToHost(id)
}

// checkExpect compares a step outcome to its expect clause. Returns "" when
// the outcome matches.
func checkExpect(step Step, out any, err error) string {
	want := step.Expect
	switch {
	case want == nil || want.Error == "":
		if err != nil {
			return fmt.Sprintf("unexpected error: %v", err)
		}
	case err == nil:
		return fmt.Sprintf("expected error %s, got success", want.Error)
	default:
		if got := errorCode(err); got != want.Error {
			return fmt.Sprintf("expected error %s, got %s: %v", want.Error, got, err)
		}
		return ""
	}

	if want == nil || want.Result == nil {
		return ""
	}
	equal, diff, cerr := sameValue(want.Result, out)
	if cerr != nil {
		return fmt.Sprintf("compare result: %v", cerr)
	}
	if !equal {
		return diff
	}
	return ""
}

// sameValue compares two host values by canonical JSON, so object key order
// is ignored.
func sameValue(want, got any) (bool, string, error) {
	wantJSON, err := canonical(want)
	if err != nil {
		return false, "", fmt.Errorf("expected: %w", err)
	}
	gotJSON, err := canonical(got)
	if err != nil {
		return false, "", fmt.Errorf("actual: %w", err)
	}
	if wantJSON != gotJSON {
		return false, fmt.Sprintf("expected %s, got %s", wantJSON, gotJSON), nil
	}
	return true, "", nil
}

func canonical(h any) (string, error) {
	v, err := bridge.FromHost(h)
	if err != nil {
		return "", err
	}
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// errorCode returns the fault or engine code of err, or "ERROR".
func errorCode(err error) string {
	var ee *engine.Error
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	if code := fault.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}

func isArchived(ctx context.Context, db *engine.Database, name string) bool {
	names, err := db.ListCollections(ctx)
	if err != nil {
		return true
	}
	for _, n := range names {
		if n == name {
			return false
		}
	}
	return true
}

func argString(args map[string]any, key, def string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", errInvalidArgs, key, v)
	}
	return s, nil
}

func argInt(args map[string]any, key string, def int64) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", errInvalidArgs, key, v)
	}
}

// argConfig converts args[key] into a Config. A missing key is an empty
// Config.
func argConfig(args map[string]any, key string) (*config.Config, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return config.New(), nil
	}
	cfg, err := config.FromHost(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errInvalidArgs, key, err)
	}
	return cfg, nil
}

func argRegistration(args map[string]any, defName string) (string, *config.Config, error) {
	name, err := argString(args, "name", defName)
	if err != nil {
		return "", nil, err
	}
	params, err := argConfig(args, "params")
	if err != nil {
		return "", nil, err
	}
	return name, params, nil
}

func argDocuments(args map[string]any) ([]*value.Object, error) {
	list, ok := args["documents"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: documents must be a list", errInvalidArgs)
	}
	docs := make([]*value.Object, len(list))
	for i, elem := range list {
		v, err := bridge.FromHost(elem)
		if err != nil {
			return nil, fmt.Errorf("%w: documents[%d]: %v", errInvalidArgs, i, err)
		}
		obj, ok := v.(*value.Object)
		if !ok {
			return nil, fmt.Errorf("%w: documents[%d] must be a mapping", errInvalidArgs, i)
		}
		docs[i] = obj
	}
	return docs, nil
}
