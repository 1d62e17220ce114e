// Package harbor provides the remote-transport collaborators
// implementing actor.Harbor. It imports pkg/actor one-directionally;
// actor.Harbor itself is declared inside pkg/actor to avoid the cycle
// a two-way import would create.
package harbor

import "github.com/fluxorio/corenet/pkg/actor"

// Local is the harbor for single-node deployments: every destination
// is, by definition, local, so any call here means a caller addressed
// a node id the topology doesn't know about.
type Local struct{}

// NewLocal returns a harbor that always reports ErrUnknownHandle.
func NewLocal() *Local { return &Local{} }

func (Local) Send(_ actor.Handle, _ *actor.Message) error {
	return actor.ErrUnknownHandle
}
