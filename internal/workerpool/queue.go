package workerpool

import "sync"

// queue is an unbounded FIFO. Producers never block: a step returned by a
// notifier callback must always be accepted.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Step
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue) push(s Step) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, s)
	q.cond.Signal()
	return true
}

// pop blocks until a step is available. It returns false once the queue is
// closed and empty.
func (q *queue) pop() (Step, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	s := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return s, true
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
