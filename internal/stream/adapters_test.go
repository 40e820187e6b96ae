package stream

import (
	"context"
	"errors"
	"io"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	seq := FromSlice([]string{"a", "b"})
	ctx := context.Background()

	v, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	require.NoError(t, seq.Close())
	_, err = seq.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFromSlice_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FromSlice([]int{1}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromSeq2_PassesElementsAndError(t *testing.T) {
	var pushed iter.Seq2[int, error] = func(yield func(int, error) bool) {
		if !yield(1, nil) {
			return
		}
		yield(0, errors.New("upstream broke"))
	}

	s := New(FromSeq2(pushed), identity)
	ctx := context.Background()

	v, err := s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = s.Step(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream broke")

	_, err = s.Step(ctx)
	assert.ErrorIs(t, err, ErrIterationComplete)
}

func TestFromSeq2_StopRunsDeferred(t *testing.T) {
	stopped := make(chan struct{})
	var pushed iter.Seq2[int, error] = func(yield func(int, error) bool) {
		defer close(stopped)
		for i := 0; ; i++ {
			if !yield(i, nil) {
				return
			}
		}
	}

	seq := FromSeq2(pushed)
	_, err := seq.Next(context.Background())
	require.NoError(t, err)
	require.NoError(t, seq.Close())

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("push iterator not stopped")
	}
}

func TestProduce_LazyStart(t *testing.T) {
	started := make(chan struct{}, 1)
	seq := Produce(context.Background(), func(ctx context.Context, emit func(int) error) error {
		started <- struct{}{}
		return emit(7)
	})

	select {
	case <-started:
		t.Fatal("producer started before first Next")
	case <-time.After(20 * time.Millisecond):
	}

	v, err := seq.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = seq.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, seq.Close())
}

func TestProduce_ErrorBecomesFinalElement(t *testing.T) {
	seq := Produce(context.Background(), func(ctx context.Context, emit func(int) error) error {
		if err := emit(1); err != nil {
			return err
		}
		return errors.New("model unavailable")
	})
	s := New(seq, identity)
	ctx := context.Background()

	_, err := s.Step(ctx)
	require.NoError(t, err)

	_, err = s.Step(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestProduce_CloseStopsInfiniteProducer(t *testing.T) {
	exited := make(chan struct{})
	seq := Produce(context.Background(), func(ctx context.Context, emit func(int) error) error {
		defer close(exited)
		for i := 0; ; i++ {
			if err := emit(i); err != nil {
				return err
			}
		}
	})

	s := New(seq, identity)
	for i := 0; i < 3; i++ {
		v, err := s.Step(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	require.NoError(t, s.Close())
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("producer still running after Close")
	}
}

func TestProduce_CloseBeforeStart(t *testing.T) {
	seq := Produce(context.Background(), func(ctx context.Context, emit func(int) error) error {
		return emit(1)
	})
	require.NoError(t, seq.Close())

	_, err := seq.Next(context.Background())
	assert.Error(t, err)
}
