package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[string]()
	assert.True(t, q.IsEmpty())

	_, ok := q.Dequeue()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)

	q.Enqueue("first")
	q.Enqueue("second")
	assert.Equal(t, 2, q.Len())

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "first", head)
	assert.Equal(t, 2, q.Len())

	got, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "first", got)

	got, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "second", got)
	assert.True(t, q.IsEmpty())
}

func TestQueue_ConcurrentEnqueue(t *testing.T) {
	q := New[int]()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(i)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, q.Len())
	seen := make(map[int]bool)
	for !q.IsEmpty() {
		v, ok := q.Dequeue()
		require.True(t, ok)
		seen[v] = true
	}
	assert.Len(t, seen, 50)
}
