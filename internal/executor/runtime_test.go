package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/fault"
)

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(4)
	require.NoError(t, err)
	t.Cleanup(rt.Stop)
	return rt
}

func TestNew_RejectsNonPositiveQueue(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
}

func TestBlockOn_ReturnsResult(t *testing.T) {
	rt := newRuntime(t)

	got, err := BlockOn(context.Background(), rt, func(ctx context.Context) (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestBlock_PropagatesError(t *testing.T) {
	rt := newRuntime(t)
	want := errors.New("native failed")

	err := rt.Block(context.Background(), func(ctx context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestSubmit_FIFOOnOneGoroutine(t *testing.T) {
	rt := newRuntime(t)

	var order []int
	for i := 0; i < 50; i++ {
		require.NoError(t, rt.Submit(context.Background(), func(context.Context) error {
			order = append(order, i)
			return nil
		}))
	}

	// The barrier runs after every submitted task.
	var got []int
	require.NoError(t, rt.Block(context.Background(), func(context.Context) error {
		got = append(got, order...)
		return nil
	}))

	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestBlock_NestedRunsInline(t *testing.T) {
	rt := newRuntime(t)

	got, err := BlockOn(context.Background(), rt, func(ctx context.Context) (int, error) {
		return BlockOn(ctx, rt, func(ctx context.Context) (int, error) {
			return 42, nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestBlock_ManyCallersSerialized(t *testing.T) {
	rt := newRuntime(t)

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := rt.Block(context.Background(), func(context.Context) error {
				n := active.Add(1)
				if n > maxActive.Load() {
					maxActive.Store(n)
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestBlock_PanicBecomesError(t *testing.T) {
	rt := newRuntime(t)

	err := rt.Block(context.Background(), func(context.Context) error {
		panic("engine exploded")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine exploded")

	// The loop survived.
	assert.NoError(t, rt.Block(context.Background(), func(context.Context) error { return nil }))
}

func TestBlock_CancelledWhileQueued(t *testing.T) {
	rt := newRuntime(t)

	release := make(chan struct{})
	require.NoError(t, rt.Submit(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var ran atomic.Bool
	err := rt.Block(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, rt.Block(context.Background(), func(context.Context) error { return nil }))
	assert.False(t, ran.Load(), "cancelled task must be skipped")
}

func TestStop_DrainsAndRejects(t *testing.T) {
	rt, err := New(1)
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, rt.Submit(context.Background(), func(context.Context) error {
			ran.Add(1)
			return nil
		}))
	}
	rt.Stop()

	assert.Equal(t, int32(5), ran.Load())
	assert.ErrorIs(t, rt.Submit(context.Background(), func(context.Context) error { return nil }), ErrStopped)

	_, err = BlockOn(context.Background(), rt, func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestNewLazy_BuildsOnceUnderContention(t *testing.T) {
	var builds atomic.Int32
	lazy := NewLazy(func() (*int, error) {
		builds.Add(1)
		time.Sleep(5 * time.Millisecond)
		v := 7
		return &v, nil
	})

	const callers = 64
	results := make([]*int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := lazy.Get()
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestNewLazy_FailureNotRetried(t *testing.T) {
	var builds atomic.Int32
	lazy := NewLazy(func() (int, error) {
		builds.Add(1)
		return 0, errors.New("no threads")
	})

	_, err1 := lazy.Get()
	_, err2 := lazy.Get()
	assert.Error(t, err1)
	assert.Equal(t, err1, err2)
	assert.Equal(t, int32(1), builds.Load())
}

func TestDefault_SameInstance(t *testing.T) {
	const callers = 32
	got := make([]*Runtime, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = Default()
		}()
	}
	wg.Wait()

	for _, rt := range got {
		assert.Same(t, got[0], rt)
	}

	v, err := BlockOn(context.Background(), Default(), func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestDefault_PanicsOnConstructionFailure(t *testing.T) {
	prev := defaultRuntime
	defaultRuntime = NewLazy(func() (*Runtime, error) {
		return nil, errors.New("no threads")
	})
	t.Cleanup(func() { defaultRuntime = prev })

	defer func() {
		p := recover()
		require.NotNil(t, p, "Default must panic")
		err, ok := p.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, fault.ErrRuntimeConstruction))
		assert.Contains(t, err.Error(), "no threads")
	}()
	Default()
}
