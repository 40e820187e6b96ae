package stream

import (
	"context"
	"errors"
	"io"
	"iter"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/logging"
	"github.com/roach88/hostbridge/internal/value"
)

// ErrIterationComplete signals the end of a stream. It is not a failure.
var ErrIterationComplete = errors.New("iteration complete")

// Sequence is a lazy, single-consumer native sequence.
// Next returns io.EOF once exhausted. Close cancels any pending native work.
type Sequence[T any] interface {
	Next(ctx context.Context) (T, error)
	Close() error
}

// Stream adapts a Sequence into the host iterator protocol.
// Steps are serialized: at most one element is in flight at any time.
type Stream[H any] struct {
	lock *semaphore.Weighted
	src  *source[H]
}

// source is the part of a Stream the cleanup hook can reach.
// It must never point back at its Stream.
type source[H any] struct {
	next  func(context.Context) (H, error)
	close func() error

	// ctx is cancelled by Close to abort an in-flight Next.
	ctx    context.Context
	cancel context.CancelFunc

	done bool // guarded by Stream.lock

	once     sync.Once
	closeErr error
}

func (src *source[H]) shutdown() error {
	src.once.Do(func() {
		src.cancel()
		src.closeErr = src.close()
	})
	return src.closeErr
}

// New wraps seq. Each element is converted with convert as it is stepped.
// The stream owns seq from here on; seq is closed on exhaustion, on the
// first error, on Close, or when the stream becomes unreachable.
func New[T, H any](seq Sequence[T], convert func(T) H) *Stream[H] {
	ctx, cancel := context.WithCancel(context.Background())
	src := &source[H]{
		next: func(ctx context.Context) (H, error) {
			v, err := seq.Next(ctx)
			if err != nil {
				var zero H
				return zero, err
			}
			return convert(v), nil
		},
		close:  seq.Close,
		ctx:    ctx,
		cancel: cancel,
	}

	s := &Stream[H]{lock: semaphore.NewWeighted(1), src: src}
	runtime.AddCleanup(s, func(src *source[H]) {
		if err := src.shutdown(); err != nil {
			logging.Logger().Warn("closing abandoned stream", zap.Error(err))
		}
	}, src)
	return s
}

// NewValues bridges an engine value sequence into the Go dynamic host.
func NewValues(seq Sequence[value.Value]) *Stream[any] {
	return New(seq, bridge.ToHost)
}

// Iter returns s itself.
func (s *Stream[H]) Iter() *Stream[H] {
	return s
}

// Step pulls the next element. It returns ErrIterationComplete at the end
// and a NATIVE_FAILURE fault if the sequence fails; both are terminal.
// If another Step is in flight the caller waits; cancelling ctx abandons
// the wait.
func (s *Stream[H]) Step(ctx context.Context) (H, error) {
	var zero H
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer s.lock.Release(1)

	src := s.src
	if src.done {
		return zero, ErrIterationComplete
	}

	stepCtx, stop := context.WithCancel(ctx)
	defer stop()
	unhook := context.AfterFunc(src.ctx, stop)
	defer unhook()

	v, err := src.next(stepCtx)
	switch {
	case err == nil:
		return v, nil

	case src.ctx.Err() != nil:
		// Closed while this step was pulling.
		src.done = true
		return zero, ErrIterationComplete

	case errors.Is(err, io.EOF):
		src.done = true
		if cerr := src.shutdown(); cerr != nil {
			logging.Logger().Debug("closing exhausted stream", zap.Error(cerr))
		}
		return zero, ErrIterationComplete

	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// The caller gave up; the element was not consumed.
		return zero, ctx.Err()

	default:
		src.done = true
		if cerr := src.shutdown(); cerr != nil {
			logging.Logger().Debug("closing failed stream", zap.Error(cerr))
		}
		return zero, fault.Native(err)
	}
}

// Close abandons the stream and releases the native sequence. An in-flight
// Step is cancelled and reports the end of iteration. Safe to call twice.
func (s *Stream[H]) Close() error {
	src := s.src
	src.cancel()

	// Wait out any in-flight step so the sequence is never closed under it.
	_ = s.lock.Acquire(context.Background(), 1)
	src.done = true
	s.lock.Release(1)

	return src.shutdown()
}

// All exposes the stream as a range-over-func iterator. A terminal failure
// is yielded once; the end of iteration is silent.
func (s *Stream[H]) All(ctx context.Context) iter.Seq2[H, error] {
	return func(yield func(H, error) bool) {
		for {
			v, err := s.Step(ctx)
			if errors.Is(err, ErrIterationComplete) {
				return
			}
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
