package actor

import (
	"fmt"
	"sync/atomic"

	"github.com/fluxorio/corenet/pkg/corelog"
	"github.com/fluxorio/corenet/pkg/failfast"
)

// Callback is the message handler a module registers during Init. A
// truthy return means the dispatcher must not free/reuse the payload
// (spec.md §6).
type Callback func(ctx *Context, userData any, t PType, session int32, source Handle, payload []byte) (retain bool)

// Context is one live actor: the binding of a loaded module instance,
// its mailbox, its handle, and its bookkeeping (spec.md §3, C4).
type Context struct {
	node *Node

	handle       Handle
	deploymentID string

	moduleName string
	instance   any

	cb   Callback
	cbUD any

	mbox *mailbox

	refCount atomic.Int32
	session  atomic.Int32

	initDone atomic.Bool
	endless  atomic.Bool
	reserved atomic.Bool

	messageCount atomic.Int64
	cpuCostUs    atomic.Int64
	cpuStartUs   atomic.Int64

	logSink atomic.Pointer[corelog.Logger]
}

// Handle returns the context's address.
func (c *Context) Handle() Handle { return c.handle }

// DeploymentID is a UUID assigned at launch — never a substitute for
// Handle. Log sink files are named by handle and spans do not carry it.
func (c *Context) DeploymentID() string { return c.deploymentID }

// ModuleName returns the name the context was launched with.
func (c *Context) ModuleName() string { return c.moduleName }

// Node returns the owning node, so a module's callback can call back
// into Send/Push/Launch without its own copy of the reference.
func (c *Context) Node() *Node { return c.node }

// RegisterCallback binds the message handler; modules must call this
// during Init before returning, per the module contract (spec.md §6).
func (c *Context) RegisterCallback(cb Callback, userData any) {
	c.cb = cb
	c.cbUD = userData
}

// Reserve excludes the context from the node's total_contexts count so
// ABORT-driven shutdown can complete while a long-lived helper is still
// held open; reserved contexts are released last by convention
// (spec.md §5).
func (c *Context) Reserve() { c.reserved.Store(true) }

// addRef atomically increments the reference count (the registry's
// grab, or any other co-owner taking a reference).
func (c *Context) addRef() { c.refCount.Add(1) }

// release atomically decrements the reference count; at zero it tears
// the context down: module Release, mailbox markRelease, log sink
// close, and total_contexts bookkeeping. The mailbox's release flag is
// set before this function returns, never after — the race-critical
// ordering spec.md §5 requires so a concurrent sender either completes
// its push (and the drain path error-replies it) or sees the mailbox
// already gone.
func (c *Context) release() {
	if c.refCount.Add(-1) != 0 {
		return
	}

	mod, ok := Lookup(c.moduleName)
	if ok {
		mod.Release(c.instance)
	} else if c.initDone.Load() {
		// A module that successfully ran Init can never disappear from
		// the registry afterward; there is no Unregister. Seeing one
		// missing here means a caller bypassed Register/Launch.
		failfast.Err(fmt.Errorf("actor: module %q vanished from registry before %s was released", c.moduleName, c.handle))
	}
	c.mbox.markRelease()

	if l := c.logSink.Load(); l != nil {
		(*l).Close()
	}

	if !c.reserved.Load() {
		c.node.totalContexts.Add(-1)
		c.node.metrics.ContextsLive.Set(float64(c.node.totalContexts.Load()))
	}
	c.node.notifyMonitorExit(c.handle)
}

// Release drops the reference obtained via Node.Grab. Exported for
// collaborators outside the package (pkg/timersvc, pkg/harbor) that
// hold a context across an async boundary and cannot use the
// package-internal release/grab pairing directly.
func (c *Context) Release() { c.release() }

// NewSession is the exported form of newSession, for collaborators
// that allocate a session on a context they only reach via Node.Grab.
func (c *Context) NewSession() int32 { return c.newSession() }

// newSession increments the session counter, wrapping to 1 on
// overflow so the result is always strictly positive (spec.md §3).
func (c *Context) newSession() int32 {
	for {
		old := c.session.Load()
		next := old + 1
		if next <= 0 {
			next = 1
		}
		if c.session.CompareAndSwap(old, next) {
			return next
		}
	}
}

// Endless reports the monitor's advisory "callback hasn't returned"
// flag. STAT endless reads and clears it (spec.md §8 scenario 4).
func (c *Context) Endless() bool { return c.endless.Load() }

func (c *Context) takeEndless() bool { return c.endless.CompareAndSwap(true, false) }

func (c *Context) setLogSink(l corelog.Logger) {
	if prev := c.logSink.Swap(&l); prev != nil {
		(*prev).Close()
	}
}

func (c *Context) clearLogSink() {
	if prev := c.logSink.Swap(nil); prev != nil {
		(*prev).Close()
	}
}

func (c *Context) log() corelog.Logger {
	if l := c.logSink.Load(); l != nil {
		return *l
	}
	return c.node.logger
}

// dispatchAll synchronously drains the mailbox on the calling
// goroutine, bypassing the ready queue (spec.md §4.4). Node.Stop and
// Node.Abort do not call it; nothing in the package does.
func (c *Context) dispatchAll() {
	for {
		res := c.mbox.pop()
		if res.msg == nil {
			return
		}
		c.invoke(res.msg)
	}
}

func (c *Context) invoke(msg *Message) {
	c.messageCount.Add(1)
	if c.cb == nil {
		return
	}
	retain := c.cb(c, c.cbUD, msg.Type, msg.Session, msg.Source, msg.Payload)
	_ = retain // payload is GC-managed; "not freeing" is a no-op in Go, kept for signature fidelity with spec.md §6
}
