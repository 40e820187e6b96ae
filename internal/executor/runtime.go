package executor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/hostbridge/internal/logging"
)

// ErrStopped is returned for work submitted to a stopped Runtime.
var ErrStopped = errors.New("executor: runtime stopped")

// loopKey marks contexts handed to tasks running on a Runtime's loop.
type loopKey struct{}

// Runtime is a single-goroutine execution loop.
//
// Tasks run one at a time in submission order on the loop goroutine.
// Submit and Block are safe from any goroutine. A task that calls Block on
// its own runtime with the context it was given runs the inner work inline.
type Runtime struct {
	queue   *taskQueue
	stopped chan struct{}
}

// New starts a Runtime whose queue initially holds queueSize tasks.
func New(queueSize int) (*Runtime, error) {
	if queueSize <= 0 {
		return nil, fmt.Errorf("executor: queue size must be positive, got %d", queueSize)
	}

	r := &Runtime{
		queue:   newTaskQueue(queueSize),
		stopped: make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// run drains the queue until it is closed and empty.
// Only this goroutine executes tasks.
func (r *Runtime) run() {
	defer close(r.stopped)
	logging.Logger().Debug("runtime loop starting")

	for {
		if t, ok := r.queue.TryDequeue(); ok {
			r.execute(t)
			continue
		}

		<-r.queue.Wait()
		if r.queue.Drained() {
			logging.Logger().Debug("runtime loop stopping")
			return
		}
	}
}

func (r *Runtime) execute(t task) {
	// Callers that gave up while the task was queued get nothing run.
	if err := t.ctx.Err(); err != nil {
		if t.done != nil {
			t.done <- err
		}
		return
	}

	err := r.call(t)
	if t.done != nil {
		t.done <- err
		return
	}
	if err != nil {
		logging.Logger().Error("runtime task failed", zap.Error(err))
	}
}

// call runs t.fn, turning a panic into an error so the loop survives.
func (r *Runtime) call(t task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("runtime task panicked: %v", p)
		}
	}()
	return t.fn(context.WithValue(t.ctx, loopKey{}, r))
}

// onLoop reports whether ctx was handed out by this runtime's loop.
func (r *Runtime) onLoop(ctx context.Context) bool {
	owner, _ := ctx.Value(loopKey{}).(*Runtime)
	return owner == r
}

// Submit queues fn without waiting for it. Errors returned by fn are logged.
func (r *Runtime) Submit(ctx context.Context, fn func(context.Context) error) error {
	if !r.queue.Enqueue(task{ctx: ctx, fn: fn}) {
		return ErrStopped
	}
	return nil
}

// Block runs fn on the loop and waits for it to finish.
// If ctx is cancelled first, Block returns ctx.Err(); fn may still run
// if it had already started.
func (r *Runtime) Block(ctx context.Context, fn func(context.Context) error) error {
	_, err := BlockOn(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// BlockOn runs fn on rt's loop and returns its result to the calling
// goroutine. Called from inside the loop, fn runs inline.
func BlockOn[T any](ctx context.Context, rt *Runtime, fn func(context.Context) (T, error)) (T, error) {
	if rt.onLoop(ctx) {
		return fn(ctx)
	}

	type result struct {
		v   T
		err error
	}
	out := make(chan result, 1)
	done := make(chan error, 1)

	ok := rt.queue.Enqueue(task{
		ctx: ctx,
		fn: func(ctx context.Context) error {
			v, err := fn(ctx)
			out <- result{v: v, err: err}
			return err
		},
		done: done,
	})

	var zero T
	if !ok {
		return zero, ErrStopped
	}

	select {
	case res := <-out:
		<-done
		return res.v, res.err
	case err := <-done:
		// fn never produced a result: skipped or panicked.
		select {
		case res := <-out:
			return res.v, res.err
		default:
		}
		return zero, err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Stop closes the queue, lets queued tasks finish and waits for the loop
// to exit. Must not be called from a task on the same runtime.
func (r *Runtime) Stop() {
	r.queue.Close()
	<-r.stopped
}
