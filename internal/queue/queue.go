package queue

import (
	"sync"

	"wsdrop/pkg/types"
)

// Queue holds pending tasks in drop order. Enqueue may be called from any
// goroutine; tasks leave the queue only through DequeueNext.
type Queue struct {
	mu    sync.Mutex
	tasks []types.Task
	ready chan struct{}
}

func New() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Enqueue appends task to the back of the queue
func (q *Queue) Enqueue(task types.Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// DequeueNext removes and returns the front task. ok is false when the queue
// is empty.
func (q *Queue) DequeueNext() (task types.Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return types.Task{}, false
	}
	task = q.tasks[0]
	q.tasks[0] = types.Task{}
	q.tasks = q.tasks[1:]
	return task, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Ready is signalled after Enqueue. A receive does not guarantee a task is
// still pending; callers re-check with DequeueNext.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
