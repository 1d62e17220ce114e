// Package timersvc is the TIMEOUT command's collaborator: it schedules
// a PTYPE_RESPONSE reply to a handle after N centiseconds, grounded on
// the teacher's time.AfterFunc-based deferred work in pkg/core (the
// event bus's retry/backoff scheduling) rather than on a dedicated
// timer wheel, since corenet's expected timer volume does not warrant
// one.
package timersvc

import (
	"time"

	"github.com/fluxorio/corenet/pkg/actor"
)

// Service implements actor.Timer using one time.AfterFunc per call.
// Centiseconds match skynet's timer unit (1 cs = 10 ms) so callers
// porting TIMEOUT values need no conversion.
type Service struct{}

// New returns a ready-to-use Service; it carries no state of its own.
func New() *Service { return &Service{} }

// After allocates a session against target (falling back to session 1
// if target cannot be grabbed, matching actor.Node.Send's behavior for
// an already-dead source) and schedules a zero-payload PTYPE_RESPONSE
// message to target once the delay elapses.
func (s *Service) After(n *actor.Node, target actor.Handle, centiseconds int) int32 {
	var session int32
	if ctx, ok := n.Grab(target); ok {
		session = ctx.NewSession()
		ctx.Release()
	} else {
		session = 1
	}

	delay := time.Duration(centiseconds) * 10 * time.Millisecond
	time.AfterFunc(delay, func() {
		_, _ = n.Send(actor.InvalidHandle, target, actor.PTypeResponse, session, nil, 0)
	})
	return session
}
