package actor

import "sync"

// defaultMailboxCapacity is the initial ring buffer size (spec.md §4.2).
const defaultMailboxCapacity = 64

// defaultOverloadThreshold is the initial overload trip point; it
// doubles every time it trips (spec.md §4.2).
const defaultOverloadThreshold = 1024

// mailbox is the FIFO of pending messages for one context. Unlike the
// teacher's concurrency.Mailbox (a fixed-capacity channel used for
// backpressure), this queue is unbounded with an overload advisory
// only, per spec.md §1's Non-goals — a channel cannot grow its
// capacity after creation, so the ring buffer below replaces it as the
// one deliberate departure from the teacher's channel-based mailbox.
type mailbox struct {
	mu sync.Mutex

	owner Handle
	rq    *readyQueue

	buf  []*Message
	head int
	tail int
	n    int

	overloadThreshold int
	overloadPending   bool

	inGlobal bool
	release  bool
}

func newMailbox(owner Handle, rq *readyQueue) *mailbox {
	return &mailbox{
		owner:             owner,
		rq:                rq,
		buf:               make([]*Message, defaultMailboxCapacity),
		overloadThreshold: defaultOverloadThreshold,
	}
}

func (mb *mailbox) grow() {
	newCap := len(mb.buf) * 2
	nb := make([]*Message, newCap)
	for i := 0; i < mb.n; i++ {
		nb[i] = mb.buf[(mb.head+i)%len(mb.buf)]
	}
	mb.buf = nb
	mb.head = 0
	mb.tail = mb.n
}

// push appends msg. If the mailbox was idle it links itself into the
// ready queue. Crossing the overload threshold records a pending
// advisory (overloadPending), which persists until observed by pop.
func (mb *mailbox) push(msg *Message) {
	mb.mu.Lock()
	if mb.n == len(mb.buf) {
		mb.grow()
	}
	mb.buf[mb.tail] = msg
	mb.tail = (mb.tail + 1) % len(mb.buf)
	mb.n++

	if mb.n > mb.overloadThreshold {
		mb.overloadPending = true
		mb.overloadThreshold *= 2
	}

	wasIdle := !mb.inGlobal
	if wasIdle {
		mb.inGlobal = true
	}
	mb.mu.Unlock()

	if wasIdle {
		mb.rq.push(mb)
	}
}

// popResult is returned by pop.
type popResult struct {
	msg      *Message
	overload bool
	// destroy is true when the mailbox is empty, released, and must be
	// torn down by the caller (spec.md §5 teardown race).
	destroy bool
}

func (mb *mailbox) pop() popResult {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.n == 0 {
		mb.inGlobal = false
		if mb.release {
			return popResult{destroy: true}
		}
		return popResult{}
	}

	msg := mb.buf[mb.head]
	mb.buf[mb.head] = nil
	mb.head = (mb.head + 1) % len(mb.buf)
	mb.n--

	overload := mb.overloadPending
	mb.overloadPending = false

	if mb.n == 0 {
		mb.inGlobal = false
	}

	return popResult{msg: msg, overload: overload}
}

// markRelease publishes intent to destroy the mailbox. If it is
// currently idle it is pushed into the ready queue so a worker
// eventually observes the release and runs the drain-and-error path.
func (mb *mailbox) markRelease() {
	mb.mu.Lock()
	mb.release = true
	wasIdle := !mb.inGlobal
	if wasIdle {
		mb.inGlobal = true
	}
	mb.mu.Unlock()

	if wasIdle {
		mb.rq.push(mb)
	}
}

// forcePush links the mailbox into the ready queue even if it is
// empty, used once after a context finishes init (spec.md §4.4, §9).
// It is a no-op if the mailbox is already linked.
func (mb *mailbox) forcePush() {
	mb.mu.Lock()
	wasIdle := !mb.inGlobal
	if wasIdle {
		mb.inGlobal = true
	}
	mb.mu.Unlock()

	if wasIdle {
		mb.rq.push(mb)
	}
}

func (mb *mailbox) length() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.n
}

// drainAll removes and returns every pending message, for the
// destroy path (spec.md §4.2: each drained message gets an error
// reply to its source).
func (mb *mailbox) drainAll() []*Message {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]*Message, 0, mb.n)
	for mb.n > 0 {
		out = append(out, mb.buf[mb.head])
		mb.buf[mb.head] = nil
		mb.head = (mb.head + 1) % len(mb.buf)
		mb.n--
	}
	mb.inGlobal = false
	return out
}
