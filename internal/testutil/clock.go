package testutil

import "sync/atomic"

// Sequence is a logical counter for trace sequence numbers and generated
// ids. Two Sequences advanced the same number of times always agree, so
// scenario traces are reproducible. Safe for concurrent use.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a Sequence whose first Next is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next advances the sequence and returns the new value.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last value handed out, or 0.
func (s *Sequence) Current() int64 {
	return s.n.Load()
}

// Reset rewinds the sequence so the next call to Next returns 1.
func (s *Sequence) Reset() {
	s.n.Store(0)
}
