package actor

import (
	"sync"

	"github.com/fluxorio/corenet/pkg/failfast"
)

// Module is the loadable-unit vtable every actor module implements
// (spec.md §6). There is no dynamic `.so` loading in corenet — modules
// register themselves from an init() function, the same pattern
// database/sql drivers (and mattn/go-sqlite3, lib/pq in this pack) use
// to make themselves available to sql.Open by name.
type Module interface {
	// Create returns the module's private instance state. It may
	// return nil to mean "no instance state".
	Create() (any, error)

	// Init is called synchronously before any message is dispatched.
	// It must call ctx.RegisterCallback before returning nil.
	Init(instance any, ctx *Context, param string) error

	// Release is called exactly once, after the context's reference
	// count reaches zero. It must be idempotent in the sense that it
	// is never called twice for the same instance.
	Release(instance any)

	// Signal may be called from any thread at any time; implementations
	// must be safe for concurrent use with Init/Release/the callback.
	Signal(instance any, sig int)
}

var modulesMu sync.RWMutex
var modules = map[string]Module{}

// Register makes a module available under name for launch(). Calling
// Register twice with the same name panics, matching sql.Register's
// fail-fast-on-misconfiguration behavior.
func Register(name string, m Module) {
	failfast.NotNil(m, "module")
	modulesMu.Lock()
	defer modulesMu.Unlock()
	if _, dup := modules[name]; dup {
		panic("actor: Register called twice for module " + name)
	}
	modules[name] = m
}

// Lookup resolves a registered module by name.
func Lookup(name string) (Module, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	m, ok := modules[name]
	return m, ok
}
