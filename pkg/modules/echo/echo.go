// Package echo is a minimal actor.Module used for end-to-end exercises
// and as a template: it sends back each message it receives as a
// PTYPE_RESPONSE to the original source, carrying the same payload and
// session. PTYPE_RESPONSE and PTYPE_ERROR messages, and messages with no
// source, are not echoed.
package echo

import (
	"github.com/fluxorio/corenet/pkg/actor"
	"github.com/fluxorio/corenet/pkg/module"
)

func init() {
	module.Register("echo", &Module{})
}

// Module implements actor.Module. It is stateless; Create returns a
// throwaway instance only because the interface requires one.
type Module struct{}

type instance struct{}

func (Module) Create() (any, error) { return &instance{}, nil }

func (Module) Init(inst any, ctx *actor.Context, _ string) error {
	ctx.RegisterCallback(func(ctx *actor.Context, _ any, t actor.PType, session int32, source actor.Handle, payload []byte) bool {
		if t == actor.PTypeResponse || t == actor.PTypeError || source == actor.InvalidHandle {
			return false // don't echo replies or ownerless messages, to avoid a ping-pong loop
		}
		_, _ = ctx.Node().Send(ctx.Handle(), source, actor.PTypeResponse, session, payload, 0)
		return false
	}, nil)
	return nil
}

func (Module) Release(any) {}

func (Module) Signal(any, int) {}
