package actor

import "testing"

func TestMailboxFIFOOrder(t *testing.T) {
	rq := newReadyQueue()
	mb := newMailbox(MakeHandle(0, 1), rq)

	for i := 0; i < 10; i++ {
		mb.push(&Message{Session: int32(i)})
	}
	for i := 0; i < 10; i++ {
		res := mb.pop()
		if res.msg == nil {
			t.Fatalf("pop #%d returned nil", i)
		}
		if res.msg.Session != int32(i) {
			t.Fatalf("pop #%d session = %d, want %d", i, res.msg.Session, i)
		}
	}
	res := mb.pop()
	if res.msg != nil {
		t.Fatal("pop on empty mailbox returned a message")
	}
}

func TestMailboxGrowsPastInitialCapacity(t *testing.T) {
	rq := newReadyQueue()
	mb := newMailbox(MakeHandle(0, 1), rq)

	const n = defaultMailboxCapacity*2 + 7
	for i := 0; i < n; i++ {
		mb.push(&Message{Session: int32(i)})
	}
	if mb.length() != n {
		t.Fatalf("length = %d, want %d", mb.length(), n)
	}
	for i := 0; i < n; i++ {
		res := mb.pop()
		if res.msg == nil || res.msg.Session != int32(i) {
			t.Fatalf("pop #%d = %v, want session %d", i, res.msg, i)
		}
	}
}

func TestMailboxOverloadTripsAndDoubles(t *testing.T) {
	rq := newReadyQueue()
	mb := newMailbox(MakeHandle(0, 1), rq)

	for i := 0; i <= defaultOverloadThreshold; i++ {
		mb.push(&Message{})
	}
	res := mb.pop()
	if !res.overload {
		t.Fatal("expected overload flag on first pop after tripping threshold")
	}
	if mb.overloadThreshold != defaultOverloadThreshold*2 {
		t.Fatalf("overloadThreshold = %d, want %d", mb.overloadThreshold, defaultOverloadThreshold*2)
	}

	// Draining the rest should not report overload again.
	for {
		res := mb.pop()
		if res.msg == nil {
			break
		}
		if res.overload {
			t.Fatal("unexpected repeated overload flag")
		}
	}
}

func TestMailboxLinksIntoReadyQueueOnlyWhenIdle(t *testing.T) {
	rq := newReadyQueue()
	mb := newMailbox(MakeHandle(0, 1), rq)

	mb.push(&Message{})
	if _, ok := rq.tryPop(); !ok {
		t.Fatal("expected mailbox to be linked into the ready queue on first push")
	}

	// inGlobal is still true (rq.tryPop doesn't touch it — only pop
	// does); simulate the worker owning it by popping once, which
	// empties the mailbox and clears inGlobal.
	mb.pop()
	mb.push(&Message{})
	mb.push(&Message{}) // second push while already inGlobal must not re-link
	n := 0
	for {
		if _, ok := rq.tryPop(); !ok {
			break
		}
		n++
	}
	if n != 1 {
		t.Fatalf("mailbox re-linked into ready queue %d times, want 1", n)
	}
}

func TestMailboxMarkReleaseDestroysOnEmptyPop(t *testing.T) {
	rq := newReadyQueue()
	mb := newMailbox(MakeHandle(0, 1), rq)

	mb.markRelease()
	res := mb.pop()
	if !res.destroy {
		t.Fatal("expected destroy on pop of an empty, released mailbox")
	}
}

func TestMailboxDrainAllReturnsPendingInOrder(t *testing.T) {
	rq := newReadyQueue()
	mb := newMailbox(MakeHandle(0, 1), rq)

	for i := 0; i < 5; i++ {
		mb.push(&Message{Session: int32(i)})
	}
	drained := mb.drainAll()
	if len(drained) != 5 {
		t.Fatalf("drainAll returned %d messages, want 5", len(drained))
	}
	for i, msg := range drained {
		if msg.Session != int32(i) {
			t.Fatalf("drained[%d].Session = %d, want %d", i, msg.Session, i)
		}
	}
	if mb.length() != 0 {
		t.Fatalf("length after drainAll = %d, want 0", mb.length())
	}
}
