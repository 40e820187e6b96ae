package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelled(label string) task {
	return task{
		ctx: context.WithValue(context.Background(), labelKey{}, label),
		fn:  func(context.Context) error { return nil },
	}
}

type labelKey struct{}

func labelOf(t task) string {
	s, _ := t.ctx.Value(labelKey{}).(string)
	return s
}

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue(4)

	for _, l := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(labelled(l)))
	}

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, labelOf(got))
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestTaskQueue_WaitSignals(t *testing.T) {
	q := newTaskQueue(1)

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(labelled("late"))
	}()

	select {
	case <-q.Wait():
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, "late", labelOf(got))
	case <-time.After(time.Second):
		t.Fatal("wait did not signal")
	}
}

func TestTaskQueue_CloseRejectsAndDrains(t *testing.T) {
	q := newTaskQueue(1)
	q.Enqueue(labelled("queued"))
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(labelled("after-close")))
	assert.False(t, q.Drained(), "queued task must still be delivered")

	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Drained())

	select {
	case <-q.Wait():
	default:
		t.Fatal("closed queue must wake waiters")
	}
}

func TestTaskQueue_Len(t *testing.T) {
	q := newTaskQueue(1)
	assert.Equal(t, 0, q.Len())

	q.Enqueue(labelled("1"))
	q.Enqueue(labelled("2"))
	assert.Equal(t, 2, q.Len())

	q.TryDequeue()
	assert.Equal(t, 1, q.Len())
}

func TestTaskQueue_ThreadSafe(t *testing.T) {
	q := newTaskQueue(8)

	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(labelled("x"))
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, producers*perProducer, count)
}
