package loader

import "sync"

// Dispatcher marshals callbacks onto a delivery context. Implementations
// must run functions serially, in submission order.
type Dispatcher interface {
	Dispatch(fn func())
}

// Immediate runs callbacks inline on the submitting goroutine. Suitable for
// tests and CLI tools where no UI thread exists.
type Immediate struct{}

// Dispatch runs fn synchronously.
func (Immediate) Dispatch(fn func()) {
	if fn != nil {
		fn()
	}
}

// SerialQueue delivers callbacks one at a time on a single goroutine, in
// FIFO order. It stands in for a UI main loop.
type SerialQueue struct {
	fns  chan func()
	wg   sync.WaitGroup
	mu   sync.Mutex
	done bool
}

// NewSerialQueue starts the delivery goroutine with the given queue depth.
func NewSerialQueue(depth int) *SerialQueue {
	if depth < 1 {
		depth = 64
	}
	q := &SerialQueue{fns: make(chan func(), depth)}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer q.wg.Done()
	for fn := range q.fns {
		fn()
	}
}

// Dispatch enqueues fn for serial delivery. Blocks when the queue is full;
// drops fn if the queue is closed.
func (q *SerialQueue) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done {
		return
	}
	q.fns <- fn
}

// Close drains pending callbacks and stops the delivery goroutine.
func (q *SerialQueue) Close() {
	q.mu.Lock()
	if q.done {
		q.mu.Unlock()
		return
	}
	q.done = true
	close(q.fns)
	q.mu.Unlock()

	q.wg.Wait()
}
