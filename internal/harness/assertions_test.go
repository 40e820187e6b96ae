package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/value"
)

func TestAssertions_Failures(t *testing.T) {
	result, err := runYAML(t, `
name: failing_assertions
description: every assertion fails
setup:
  - op: upsert
    args:
      documents:
        - { id: fox, text: "the quick brown fox" }
        - { id: lorem, text: "lorem ipsum dolor" }
  - op: register_text_splitter
  - op: generate_chunks
  - op: register_model
  - op: generate_embeddings
flow:
  - op: sync_data
assertions:
  - type: sync_status
    expect: { documents: 3 }
  - type: search_order
    query: "quick brown fox"
    documents: [lorem]
  - type: search_order
    query: "fox"
    params: { top_k: 1 }
    documents: [fox, lorem]
  - type: op_count
    op: sync_data
    count: 2
  - type: collections
    collections: [other]
  - type: document
    id: missing
    expect: { text: x }
  - type: document
    id: fox
    expect: { text: "slow fox" }
  - type: sync_status
    expect: { vectors: 1 }
`)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 8)
	assert.Contains(t, result.Errors[0], `assertions[0] sync_status: field "documents": expected 3, got 2`)
	assert.Contains(t, result.Errors[1], "expected leading documents [lorem], got [fox]")
	assert.Contains(t, result.Errors[2], "expected at least 2 hits, got 1")
	assert.Contains(t, result.Errors[3], "expected sync_data 2 time(s), got 1")
	assert.Contains(t, result.Errors[4], "expected collections [other], got [scenario]")
	assert.Contains(t, result.Errors[5], `document "missing" not found`)
	assert.Contains(t, result.Errors[6], `field "text"`)
	assert.Contains(t, result.Errors[7], `field "vectors" missing`)
}

func TestMatchSubset(t *testing.T) {
	obj := value.NewObject(
		value.O("name", value.String("papers")),
		value.O("count", value.Int(2)),
		value.O("nested", value.NewObject(value.O("b", value.Int(1)), value.O("a", value.Int(2)))),
	)

	assert.Empty(t, matchSubset(map[string]any{"count": 2}, obj))
	assert.Empty(t, matchSubset(map[string]any{"nested": map[string]any{"a": 2, "b": 1}}, obj))
	assert.Contains(t, matchSubset(map[string]any{"count": 2.5}, obj), `field "count"`)
	assert.Contains(t, matchSubset(map[string]any{"name": "notes"}, obj), `expected "notes", got "papers"`)
}

func TestSameValue_IntAndFloatDiffer(t *testing.T) {
	equal, diff, err := sameValue(1, 1.0)
	require.NoError(t, err)
	assert.False(t, equal)
	assert.Contains(t, diff, "expected 1, got 1.0")
}
