package stream

import (
	"context"
	"io"
	"iter"
	"sync"
)

// FromSlice returns a Sequence over items.
func FromSlice[T any](items []T) Sequence[T] {
	return &sliceSeq[T]{items: items}
}

type sliceSeq[T any] struct {
	items []T
	pos   int
}

func (s *sliceSeq[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if s.pos >= len(s.items) {
		return zero, io.EOF
	}
	v := s.items[s.pos]
	s.pos++
	return v, nil
}

func (s *sliceSeq[T]) Close() error {
	s.pos = len(s.items)
	return nil
}

// FromSeq2 adapts a push iterator of (element, error) pairs into a Sequence.
// A non-nil error ends the sequence.
func FromSeq2[T any](seq iter.Seq2[T, error]) Sequence[T] {
	next, stop := iter.Pull2(seq)
	return &pullSeq[T]{next: next, stop: stop}
}

type pullSeq[T any] struct {
	next func() (T, error, bool)
	stop func()
}

func (p *pullSeq[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	v, err, ok := p.next()
	if !ok {
		return zero, io.EOF
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

func (p *pullSeq[T]) Close() error {
	p.stop()
	return nil
}

// Produce runs fn on its own goroutine, started by the first Next. Each call
// to emit hands one element to the consumer and blocks until it is taken,
// so at most one element is buffered. emit returns an error once the
// sequence is closed; fn should then return. A non-nil error returned by fn
// becomes the final element.
func Produce[T any](ctx context.Context, fn func(ctx context.Context, emit func(T) error) error) Sequence[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &producer[T]{
		ctx:    ctx,
		cancel: cancel,
		fn:     fn,
		items:  make(chan item[T]),
		done:   make(chan struct{}),
	}
}

type item[T any] struct {
	v   T
	err error
}

type producer[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	fn     func(context.Context, func(T) error) error

	start sync.Once
	items chan item[T]
	done  chan struct{}
}

func (p *producer[T]) run() {
	defer close(p.done)
	defer close(p.items)

	err := p.fn(p.ctx, p.emit)
	if err != nil && p.ctx.Err() == nil {
		select {
		case p.items <- item[T]{err: err}:
		case <-p.ctx.Done():
		}
	}
}

func (p *producer[T]) emit(v T) error {
	select {
	case p.items <- item[T]{v: v}:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

func (p *producer[T]) Next(ctx context.Context) (T, error) {
	var zero T
	p.start.Do(func() { go p.run() })

	select {
	case it, ok := <-p.items:
		if !ok {
			return zero, io.EOF
		}
		if it.err != nil {
			return zero, it.err
		}
		return it.v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-p.ctx.Done():
		return zero, p.ctx.Err()
	}
}

// Close cancels the producer and waits for fn to return.
func (p *producer[T]) Close() error {
	p.cancel()
	// A producer that never started has nothing to wait for.
	p.start.Do(func() { close(p.done) })
	<-p.done
	return nil
}
