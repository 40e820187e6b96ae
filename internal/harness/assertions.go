package harness

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/engine"
	"github.com/roach88/hostbridge/internal/value"
)

// AssertionContext provides what state assertions need to query.
type AssertionContext struct {
	Ctx        context.Context
	DB         *engine.Database
	Collection *engine.Collection

	// Model and Splitter are the registrations search_order uses.
	Model    int64
	Splitter int64
}

// EvaluateAssertions checks every assertion and returns one message per
// failure. An empty slice means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if msg := evaluateAssertion(result, &a, actx); msg != "" {
			errs = append(errs, fmt.Sprintf("assertions[%d] %s: %s", i, a.Type, msg))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a *Assertion, actx *AssertionContext) string {
	switch a.Type {
	case AssertSyncStatus:
		return assertSyncStatus(a, actx)
	case AssertSearchOrder:
		return assertSearchOrder(a, actx)
	case AssertOpCount:
		return assertOpCount(result, a)
	case AssertCollections:
		return assertCollections(a, actx)
	case AssertDocument:
		return assertDocument(a, actx)
	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
}

func assertSyncStatus(a *Assertion, actx *AssertionContext) string {
	state, err := actx.Collection.PipelineSyncData(actx.Ctx)
	if err != nil {
		return fmt.Sprintf("sync_data failed: %v", err)
	}
	return matchSubset(a.Expect, state)
}

func assertSearchOrder(a *Assertion, actx *AssertionContext) string {
	params := config.New()
	if a.Params != nil {
		var err error
		params, err = config.FromHost(a.Params)
		if err != nil {
			return fmt.Sprintf("invalid params: %v", err)
		}
	}

	hits, err := actx.Collection.VectorSearch(actx.Ctx, a.Query, params, actx.Model, actx.Splitter)
	if err != nil {
		return fmt.Sprintf("search failed: %v", err)
	}

	got := make([]string, 0, len(hits))
	for _, hit := range hits {
		id, _ := documentID(hit).(string)
		got = append(got, id)
	}
	if len(got) < len(a.Documents) {
		return fmt.Sprintf("expected at least %d hits, got %d (%v)", len(a.Documents), len(got), got)
	}
	if lead := got[:len(a.Documents)]; !slices.Equal(lead, a.Documents) {
		return fmt.Sprintf("expected leading documents %v, got %v", a.Documents, lead)
	}
	return ""
}

func assertOpCount(result *Result, a *Assertion) string {
	if n := result.count(a.Op); n != a.Count {
		return fmt.Sprintf("expected %s %d time(s), got %d", a.Op, a.Count, n)
	}
	return ""
}

func assertCollections(a *Assertion, actx *AssertionContext) string {
	names, err := actx.DB.ListCollections(actx.Ctx)
	if err != nil {
		return fmt.Sprintf("list collections failed: %v", err)
	}
	want := a.Collections
	if want == nil {
		want = []string{}
	}
	if names == nil {
		names = []string{}
	}
	if !slices.Equal(names, want) {
		return fmt.Sprintf("expected collections %v, got %v", want, names)
	}
	return ""
}

func assertDocument(a *Assertion, actx *AssertionContext) string {
	docs, err := actx.Collection.GetDocuments(actx.Ctx, 0)
	if err != nil {
		return fmt.Sprintf("get documents failed: %v", err)
	}
	for _, doc := range docs {
		id, ok := doc.Get(engine.DefaultIDKey)
		if !ok {
			continue
		}
		if s, ok := id.(value.String); ok && string(s) == a.ID {
			return matchSubset(a.Expect, doc)
		}
	}
	return fmt.Sprintf("document %q not found", a.ID)
}

// matchSubset compares the expected fields against obj. Fields absent from
// expect are ignored.
func matchSubset(expect map[string]any, obj *value.Object) string {
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		got, ok := obj.Get(k)
		if !ok {
			return fmt.Sprintf("field %q missing", k)
		}
		equal, diff, err := sameValue(expect[k], bridge.ToHost(got))
		if err != nil {
			return fmt.Sprintf("field %q: %v", k, err)
		}
		if !equal {
			return fmt.Sprintf("field %q: %s", k, diff)
		}
	}
	return ""
}
