package actor

import (
	"github.com/google/uuid"
)

// Launch implements spec.md §4.4's `new`: locate the module, create an
// instance, allocate a context with ref_count=2 (one for the registry,
// one for the caller), assign a handle, bind a mailbox, and run Init
// synchronously. On success the caller's reference is dropped and the
// mailbox is force-pushed so messages that arrived during Init are not
// stuck. On failure both references are dropped and the mailbox is
// drained with error replies.
func (n *Node) Launch(moduleName, param string) (*Context, error) {
	mod, ok := Lookup(moduleName)
	if !ok {
		return nil, ErrModuleLoadFailed
	}

	instance, err := mod.Create()
	if err != nil {
		return nil, ErrCreateFailed
	}

	ctx := &Context{
		node:         n,
		moduleName:   moduleName,
		instance:     instance,
		deploymentID: uuid.NewString(),
	}
	ctx.refCount.Store(2)

	handle, err := n.registry.register(ctx)
	if err != nil {
		// No handle was assigned; nothing to retire, just unwind the
		// two logical references and let the module clean up.
		mod.Release(instance)
		return nil, err
	}
	ctx.handle = handle
	ctx.mbox = newMailbox(handle, n.rq)
	n.totalContexts.Add(1)
	n.metrics.ContextsLive.Set(float64(n.totalContexts.Load()))

	if err := mod.Init(instance, ctx, param); err != nil {
		n.registry.retire(handle) // drops the registry's conceptual reference
		ctx.release()             // drops the caller's reference -> teardown runs
		return nil, ErrInitFailed
	}

	ctx.initDone.Store(true)
	ctx.release() // drop the caller's reference; registry still holds one
	ctx.mbox.forcePush()
	return ctx, nil
}

// Push enqueues msg into dest's mailbox. Ownership of the payload
// transfers to the mailbox on success; on failure the caller retains
// ownership (spec.md §4.4).
func (n *Node) Push(dest Handle, msg *Message) error {
	ctx, ok := n.registry.grab(dest)
	if !ok {
		return ErrUnknownHandle
	}
	ctx.mbox.push(msg)
	release(ctx)
	return nil
}

// release is the counterpart to registry.grab for framework-internal
// code that doesn't otherwise hold a *Context method to call; it
// exists as a free function so call sites read as "grab ... release"
// symmetrically, matching spec.md §4.1's prose.
func release(ctx *Context) { ctx.release() }

// Send implements spec.md §4.4's `send`. dest == 0 pre-allocates a
// session without enqueueing. source is used exactly as passed: Send
// takes no separate caller handle, so a zero source is not replaced
// and the receiver sees InvalidHandle. Returns the session on success, or
// -1 on failure (payload is freed/ownership rules follow the DONTCOPY
// flag exactly as written in spec.md).
func (n *Node) Send(source, dest Handle, t PType, session int32, data []byte, flags SendFlag) (int32, error) {
	if len(data) > MaxPayloadSize {
		return -1, ErrPayloadTooLarge
	}

	if flags&FlagAllocSession != 0 {
		if session != 0 {
			return -1, ErrInvalidSession
		}
	}

	payload := data
	if flags&FlagDontCopy == 0 && data != nil {
		payload = make([]byte, len(data))
		copy(payload, data)
	}

	if flags&FlagAllocSession != 0 {
		if src, ok := n.registry.grab(source); ok {
			session = src.newSession()
			release(src)
		} else {
			session = 1
		}
	}

	if dest == InvalidHandle {
		return session, nil
	}

	msg := &Message{Source: source, Session: session, Type: t, Payload: payload}

	if !dest.IsLocal(n.localNodeID) {
		if n.harbor == nil {
			return -1, ErrUnknownHandle
		}
		if err := n.harbor.Send(dest, msg); err != nil {
			return -1, err
		}
		return session, nil
	}

	if err := n.Push(dest, msg); err != nil {
		return -1, err
	}
	return session, nil
}

// SendByName resolves a ':HEX' or '.name' literal destination and
// sends through Send. Anything without either prefix is treated as a
// remote named destination and handed to the harbor (spec.md §4.4).
func (n *Node) SendByName(source Handle, target string, t PType, session int32, data []byte, flags SendFlag) (int32, error) {
	if h, ok := ParseHandleText(target); ok {
		return n.Send(source, h, t, session, data, flags)
	}
	if IsNameText(target) {
		h, ok := n.registry.find(target)
		if !ok {
			return -1, ErrUnknownHandle
		}
		return n.Send(source, h, t, session, data, flags)
	}
	if n.harbor == nil {
		return -1, ErrUnknownHandle
	}
	// Remote named destination: session allocation still happens
	// locally so the caller can match a reply.
	if flags&FlagAllocSession != 0 {
		if session != 0 {
			return -1, ErrInvalidSession
		}
		if src, ok := n.registry.grab(source); ok {
			session = src.newSession()
			release(src)
		} else {
			session = 1
		}
	}
	payload := data
	if flags&FlagDontCopy == 0 && data != nil {
		payload = make([]byte, len(data))
		copy(payload, data)
	}
	if err := n.harbor.Send(0, &Message{Source: source, Session: session, Type: t, Payload: payload}); err != nil {
		return -1, err
	}
	return session, nil
}

// Kill retires a live context, running the same teardown Release
// triggers once its reference count hits zero.
func (n *Node) Kill(h Handle) {
	n.registry.unbind(h)
	n.registry.retire(h)
}

// Abort retires every registered context (the ABORT command and
// shutdown's entry point).
func (n *Node) Abort() {
	n.registry.retireAll()
}
