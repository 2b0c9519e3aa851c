package syncutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TaskSet tracks in-flight goroutines. Each task is inserted on start and
// removed when it returns.
type TaskSet struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]string
	wg    sync.WaitGroup
}

// NewTaskSet creates an empty TaskSet.
func NewTaskSet() *TaskSet {
	return &TaskSet{tasks: make(map[uuid.UUID]string)}
}

// Go starts fn in a new goroutine and returns its task ID.
func (s *TaskSet) Go(name string, fn func()) uuid.UUID {
	id := uuid.New()

	s.mu.Lock()
	s.tasks[id] = name
	s.mu.Unlock()

	s.wg.Go(func() {
		defer s.remove(id)
		fn()
	})
	return id
}

func (s *TaskSet) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
}

// Len returns the number of running tasks.
func (s *TaskSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Names returns the names of the running tasks, keyed by task ID.
func (s *TaskSet) Names() map[uuid.UUID]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]string, len(s.tasks))
	for id, name := range s.tasks {
		out[id] = name
	}
	return out
}

// Wait blocks until every task has returned or ctx is done.
func (s *TaskSet) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
