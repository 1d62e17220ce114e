// Package module is the ergonomic registration surface built-in and
// third-party modules import instead of reaching into pkg/actor
// directly — it exists purely so a module's init() reads as
// "module.Register(...)" rather than importing the scheduler engine
// under its own name, mirroring how database/sql drivers import
// database/sql only for the Register call, not for query execution.
package module

import "github.com/fluxorio/corenet/pkg/actor"

// Module is the loadable-unit vtable; see actor.Module for the
// authoritative contract documentation.
type Module = actor.Module

// Register makes a module available under name for launch().
func Register(name string, m Module) { actor.Register(name, m) }

// Lookup resolves a registered module by name.
func Lookup(name string) (Module, bool) { return actor.Lookup(name) }
