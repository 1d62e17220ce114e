package actor

import "sync"

// readyQueue is the FIFO of mailboxes currently eligible to run
// (spec.md §4.3). Producers are mailbox.push/markRelease/forcePush;
// consumers are dispatch workers. Guarded by a single lock with a
// condition variable, matching the teacher's workerpool's channel
// being a single contention point — here a slice-backed FIFO plus
// sync.Cond stands in for the channel because workers need to block
// without an upper bound on the number of distinct mailboxes in
// flight.
type readyQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*mailbox
	closed bool
}

func newReadyQueue() *readyQueue {
	rq := &readyQueue{}
	rq.cond = sync.NewCond(&rq.mu)
	return rq
}

func (rq *readyQueue) push(mb *mailbox) {
	rq.mu.Lock()
	rq.items = append(rq.items, mb)
	rq.mu.Unlock()
	rq.cond.Signal()
}

// pop blocks until a mailbox is available or the queue is closed, in
// which case it returns (nil, false).
func (rq *readyQueue) pop() (*mailbox, bool) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	for len(rq.items) == 0 && !rq.closed {
		rq.cond.Wait()
	}
	if len(rq.items) == 0 {
		return nil, false
	}
	mb := rq.items[0]
	rq.items[0] = nil
	rq.items = rq.items[1:]
	return mb, true
}

// tryPop is the non-blocking variant used by the dispatch loop's
// batch-end mailbox swap (spec.md §4.3 step 6).
func (rq *readyQueue) tryPop() (*mailbox, bool) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	if len(rq.items) == 0 {
		return nil, false
	}
	mb := rq.items[0]
	rq.items[0] = nil
	rq.items = rq.items[1:]
	return mb, true
}

// close wakes every worker blocked in pop so they can exit.
func (rq *readyQueue) close() {
	rq.mu.Lock()
	rq.closed = true
	rq.mu.Unlock()
	rq.cond.Broadcast()
}

func (rq *readyQueue) len() int {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return len(rq.items)
}
