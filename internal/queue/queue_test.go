package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"wsdrop/pkg/types"

	"github.com/stretchr/testify/require"
)

func TestFIFO(t *testing.T) {
	q := New()
	q.Enqueue(types.Task{Name: "A"})
	q.Enqueue(types.Task{Name: "B"})
	require.Equal(t, 2, q.Len())

	a, ok := q.DequeueNext()
	require.True(t, ok)
	require.Equal(t, "A", a.Name)

	b, ok := q.DequeueNext()
	require.True(t, ok)
	require.Equal(t, "B", b.Name)

	require.Equal(t, 0, q.Len())
}

func TestDequeueEmptyIsNoop(t *testing.T) {
	q := New()
	_, ok := q.DequeueNext()
	require.False(t, ok)
	_, ok = q.DequeueNext()
	require.False(t, ok)
	require.Equal(t, 0, q.Len())
}

func TestReadySignalledOnEnqueue(t *testing.T) {
	q := New()
	select {
	case <-q.Ready():
		t.Fatal("ready before enqueue")
	default:
	}

	q.Enqueue(types.Task{Name: "A"})
	q.Enqueue(types.Task{Name: "B"})

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready not signalled")
	}
	require.Equal(t, 2, q.Len())
}

func TestConcurrentEnqueueRemovesEachOnce(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Enqueue(types.Task{Name: fmt.Sprintf("t%d", i)})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for {
		task, ok := q.DequeueNext()
		if !ok {
			break
		}
		require.False(t, seen[task.Name], "task %s dequeued twice", task.Name)
		seen[task.Name] = true
	}
	require.Len(t, seen, 50)
}
