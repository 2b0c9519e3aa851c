package dispatch

import (
	"context"
	"sync"

	"github.com/eapache/queue"

	"github.com/python-bale-bot/balego/bale"
)

// Item is one queue entry: an update, or the stop sentinel.
type Item struct {
	Update *bale.Update
	Stop   bool
}

// Queue is a FIFO of updates. Every item put must be acknowledged with
// TaskDone; Join waits until nothing is left unacknowledged.
type Queue struct {
	mu         sync.Mutex
	items      *queue.Queue
	capacity   int
	unfinished int
	wake       chan struct{} // closed and replaced on every state change
	idle       chan struct{} // closed while unfinished == 0
}

// NewQueue creates a queue. capacity <= 0 means unbounded.
func NewQueue(capacity int) *Queue {
	idle := make(chan struct{})
	close(idle)
	return &Queue{
		items:    queue.New(),
		capacity: max(capacity, 0),
		wake:     make(chan struct{}),
		idle:     idle,
	}
}

func (q *Queue) broadcastLocked() {
	close(q.wake)
	q.wake = make(chan struct{})
}

func (q *Queue) addLocked(it Item) {
	q.items.Add(it)
	if q.unfinished == 0 {
		q.idle = make(chan struct{})
	}
	q.unfinished++
	q.broadcastLocked()
}

// Put appends u, blocking while a bounded queue is full.
func (q *Queue) Put(ctx context.Context, u *bale.Update) error {
	q.mu.Lock()
	for q.capacity > 0 && q.items.Length() >= q.capacity {
		wake := q.wake
		q.mu.Unlock()
		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
		q.mu.Lock()
	}
	q.addLocked(Item{Update: u})
	q.mu.Unlock()
	return nil
}

// PutSentinel appends the stop marker. It ignores capacity so shutdown
// never blocks on a full queue.
func (q *Queue) PutSentinel() {
	q.mu.Lock()
	q.addLocked(Item{Stop: true})
	q.mu.Unlock()
}

// Get removes and returns the oldest item, blocking until one is available.
func (q *Queue) Get(ctx context.Context) (Item, error) {
	q.mu.Lock()
	for q.items.Length() == 0 {
		wake := q.wake
		q.mu.Unlock()
		select {
		case <-wake:
		case <-ctx.Done():
			return Item{}, ctx.Err()
		}
		q.mu.Lock()
	}
	it := q.items.Remove().(Item)
	q.broadcastLocked()
	q.mu.Unlock()
	return it, nil
}

// TaskDone acknowledges one item returned by Get.
func (q *Queue) TaskDone() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.unfinished == 0 {
		return ErrTaskDoneUnderflow
	}
	q.doneLocked(1)
	return nil
}

func (q *Queue) doneLocked(n int) {
	q.unfinished -= n
	if q.unfinished == 0 {
		close(q.idle)
	}
}

// DrainAcknowledge removes every queued item and acknowledges it.
// It returns how many items were dropped.
func (q *Queue) DrainAcknowledge() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.items.Length()
	if n == 0 {
		return 0
	}
	for q.items.Length() > 0 {
		q.items.Remove()
	}
	q.doneLocked(n)
	q.broadcastLocked()
	return n
}

// Join blocks until every item put has been acknowledged.
func (q *Queue) Join(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Unfinished returns the number of items not yet acknowledged.
func (q *Queue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}
