package bridge

import "sync"

// task is one unit of outgoing work. Tasks perform Discord API calls and
// handle their own errors.
type task func()

// taskLoop runs submitted tasks one at a time in submission order. Submit
// never blocks the caller.
type taskLoop struct {
	mu     sync.Mutex
	queue  []task
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newTaskLoop() *taskLoop {
	return &taskLoop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Submit appends t to the queue. It reports false once the loop is closed.
func (l *taskLoop) Submit(t task) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes tasks until the loop is closed and drained.
func (l *taskLoop) Run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, t := range batch {
			t()
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-l.wake
	}
}

// Close stops accepting tasks. Tasks already submitted still run.
func (l *taskLoop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed when Run returns.
func (l *taskLoop) Done() <-chan struct{} { return l.done }
