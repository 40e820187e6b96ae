package engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/value"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		size, overlap int
		want          []string
	}{
		{"empty", "", 10, 0, nil},
		{"whitespace only", " \n\t ", 10, 0, nil},
		{"fits", "one two", 10, 0, []string{"one two"}},
		{"collapses whitespace", "one\n\n  two", 10, 0, []string{"one two"}},
		{"no overlap", "aaaa bbbb cccc", 10, 0, []string{"aaaa bbbb", "cccc"}},
		{"overlap", "aaaa bbbb cccc", 10, 4, []string{"aaaa bbbb", "bbbb cccc"}},
		{"overlap dropped when next word does not fit", "aaaa bbbb cccccc", 10, 8, []string{"aaaa bbbb", "cccccc"}},
		{"long word cut", "abcdefghij", 4, 0, []string{"abcd", "efgh", "ij"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitText(tt.text, splitterParams{size: tt.size, overlap: tt.overlap})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitText_RespectsSizeInRunes(t *testing.T) {
	text := strings.Repeat("héllo wörld ünïcode ", 50)
	p := splitterParams{size: 20, overlap: 6}

	chunks := splitText(text, p)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), p.size, "chunk %q", c)
	}
}

func TestParseSplitterParams_Defaults(t *testing.T) {
	p, _, err := parseSplitterParams(config.New())
	require.NoError(t, err)
	assert.Equal(t, splitterParams{size: DefaultChunkSize, overlap: DefaultChunkOverlap}, p)

	want := value.NewObject(
		value.O("chunk_size", value.Int(DefaultChunkSize)),
		value.O("chunk_overlap", value.Int(DefaultChunkOverlap)),
	)
	assert.True(t, value.Equal(want, p.object()))
}

func TestParseSplitterParams_NamesBadParam(t *testing.T) {
	_, param, err := parseSplitterParams(config.New(value.O("chunk_overlap", value.Int(-5))))
	require.Error(t, err)
	assert.Equal(t, "chunk_overlap", param)
}
