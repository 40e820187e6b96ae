package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
)

// SequenceGenerator returns ids of the form "<prefix>-<n>" with n counting
// from 1. It satisfies engine.IDGenerator.
//
// Thread-safety: SequenceGenerator is safe for concurrent use; it is backed
// by a Sequence.
type SequenceGenerator struct {
	prefix string
	seq    *Sequence
}

// NewSequenceGenerator creates a generator for prefix. An empty prefix
// uses "id".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceGenerator{prefix: prefix, seq: NewSequence()}
}

// Generate returns the next id.
func (g *SequenceGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.seq.Next())
}

// Reset restarts the sequence at 1.
func (g *SequenceGenerator) Reset() {
	g.seq.Reset()
}

// DatabasePath returns a fresh SQLite path inside the test's temp dir.
func DatabasePath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}
