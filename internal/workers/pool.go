package workers

import (
	"sync"

	"photo-pipeline/internal/logging"
)

// Pool runs submitted tasks on a fixed set of worker goroutines. Submission
// blocks when the task queue is full, which backpressures producers instead
// of growing an unbounded backlog.
type Pool struct {
	name  string
	tasks chan func()
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewPool starts size workers draining a queue of queueDepth pending tasks.
// Non-positive arguments are bumped to 1.
func NewPool(name string, size, queueDepth int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}

	p := &Pool{
		name:  name,
		tasks: make(chan func(), queueDepth),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	logging.Debug("workers: pool %q started with %d workers, queue depth %d", name, size, queueDepth)
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit queues a task, blocking if the queue is full. It reports false if
// the pool has been stopped; the task is then dropped, not run.
func (p *Pool) Submit(task func()) bool {
	if task == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.tasks <- task
	return true
}

// TrySubmit queues a task only if the queue has room, never blocking.
func (p *Pool) TrySubmit(task func()) bool {
	if task == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop rejects further submissions, drains queued tasks, and waits for the
// workers to exit. Safe to call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	logging.Debug("workers: pool %q stopped", p.name)
}
