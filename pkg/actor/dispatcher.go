package actor

import (
	"sync"
	"time"
)

// dispatcher owns the worker pool implementing spec.md §4.3's loop.
// Unlike the teacher's concurrency.WorkerPool (identical goroutines
// pulling from one task channel), each worker here carries a distinct
// weight class, so the pool is modeled as a slice of worker loops
// rather than a single fan-out channel.
type dispatcher struct {
	node    *Node
	weights []int
	wg      sync.WaitGroup
}

func newDispatcher(n *Node, workers int) *dispatcher {
	return &dispatcher{node: n, weights: computeWeights(workers)}
}

// computeWeights lays out the recommended default weight table from
// spec.md §4.3: 4 workers at -1, 4 at 0, 8 at 1, then the remainder
// split evenly between 2 and 3. Pools smaller than 16 simply get a
// prefix of this table; the exact boundary between the 2-class and
// 3-class tails for very large pools is an implementation choice the
// prose left unspecified (see DESIGN.md).
func computeWeights(workers int) []int {
	base := []int{-1, -1, -1, -1, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1}
	w := make([]int, workers)
	for i := 0; i < workers; i++ {
		switch {
		case i < len(base):
			w[i] = base[i]
		case i < len(base)+(workers-len(base)+1)/2:
			w[i] = 2
		default:
			w[i] = 3
		}
	}
	return w
}

func (d *dispatcher) start() {
	for id, weight := range d.weights {
		d.wg.Add(1)
		go d.run(id, weight)
	}
}

func (d *dispatcher) wait() { d.wg.Wait() }

// batchSize implements spec.md §4.3 step 4 literally: negative weight
// always drains exactly one message; otherwise n = length >> weight,
// floored at 1.
func batchSize(weight, length int) int {
	if weight < 0 {
		return 1
	}
	n := length >> uint(weight)
	if n < 1 {
		n = 1
	}
	return n
}

func (d *dispatcher) run(workerID, weight int) {
	defer d.wg.Done()
	n := d.node

	var current *mailbox
	for {
		if current == nil {
			mb, ok := n.rq.pop()
			if !ok {
				return // ready queue closed: node is stopping
			}
			current = mb
		}

		handle := current.owner
		ctx, ok := n.registry.grab(handle)
		if !ok {
			// Owner is gone. The mailbox may still receive late
			// pushes from a sender that grabbed ctx before the
			// retire (spec.md §5's teardown race); drain whatever is
			// here now and error-reply each, then let it go.
			n.drainAndError(current)
			current = nil
			continue
		}

		batch := batchSize(weight, current.length())
		emptied := false
		for i := 0; i < batch; i++ {
			res := current.pop()
			if res.msg == nil {
				emptied = true
				break
			}

			d.node.monitor.enter(workerID, ctx, res.msg.Source, handle)

			started := time.Now()
			profiling := n.Profile()
			ctx.cpuStartUs.Store(started.UnixMicro())

			ctx.tracedInvoke(res.msg)

			elapsed := time.Since(started)
			ctx.cpuStartUs.Store(0)
			if profiling {
				ctx.cpuCostUs.Add(elapsed.Microseconds())
			}
			n.metrics.MessagesTotal.WithLabelValues(ctx.moduleName).Inc()
			n.metrics.CallbackDuration.WithLabelValues(ctx.moduleName).Observe(elapsed.Seconds())
			d.node.monitor.exit(workerID)

			if res.overload {
				n.metrics.OverloadTotal.WithLabelValues(handle.String()).Inc()
				ctx.log().Warnf("mailbox overload advisory: handle=%s length=%d", handle, current.length())
			}
		}

		n.metrics.MailboxLength.WithLabelValues(handle.String()).Set(float64(current.length()))

		if emptied {
			// The empty pop already cleared in_global; do not
			// re-enqueue (spec.md §4.3 step 5).
			release(ctx)
			current = nil
			continue
		}

		// Batch fully consumed without hitting empty: the mailbox may
		// still have messages, so attempt the fairness swap (step 6).
		if next, ok := n.rq.tryPop(); ok {
			current.rq.push(current)
			current = next
		}
		release(ctx)
	}
}

// drainAndError removes every pending message from mb and sends a
// PTYPE_ERROR reply (empty payload, same session) to each one's
// source, per spec.md §4.2's mailbox-destruction contract.
func (n *Node) drainAndError(mb *mailbox) {
	for _, msg := range mb.drainAll() {
		if msg.Source == InvalidHandle {
			continue
		}
		_ = n.Push(msg.Source, &Message{Source: mb.owner, Session: msg.Session, Type: PTypeError})
	}
}
