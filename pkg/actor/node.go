package actor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fluxorio/corenet/pkg/corelog"
)

// Harbor is the remote-transport collaborator (spec.md §6): anything
// implementing it can receive messages whose destination handle's node
// id differs from the local node. Defined here (rather than imported
// from pkg/harbor) so pkg/harbor can depend on pkg/actor without a
// cycle back.
type Harbor interface {
	Send(dest Handle, msg *Message) error
}

// Timer is the collaborator backing the TIMEOUT command: After schedules
// a PTYPE_RESPONSE message to target once centiseconds elapse and
// returns the session the reply will carry. Defined here for the same
// reason as Harbor — pkg/timersvc implements it without an import
// cycle back into pkg/actor.
type Timer interface {
	After(n *Node, target Handle, centiseconds int) int32
}

// Config configures a Node.
type Config struct {
	// LocalNodeID is the high-8-bit node identifier; 0 means "local
	// only" (no harbor required).
	LocalNodeID uint8
	// Workers is the worker pool size T (spec.md §4.3). Default 8.
	Workers int
	// ProfileEnabled turns on per-message cpu accounting.
	ProfileEnabled bool
	Logger         corelog.Logger
	Harbor         Harbor
	// Registerer receives corenet's Prometheus collectors. Defaults to a
	// fresh *prometheus.Registry per Node (not the global default
	// registerer) so multiple Nodes in one process — notably in
	// tests — don't collide on collector names.
	Registerer prometheus.Registerer
	// MonitorThreshold is the stuck-callback window the monitor (C6)
	// samples against. Default 5s; tests shrink it to exercise endless
	// detection without a multi-second sleep.
	MonitorThreshold time.Duration
}

// Node is the explicit, non-global substitute for skynet's process
// singleton (spec.md §9's design note): total_contexts,
// monitor_exit_handle, the profile flag, and the env table all live
// here so tests can create and tear down independent nodes.
type Node struct {
	localNodeID uint8
	startTime   time.Time

	registry *registry
	rq       *readyQueue

	totalContexts     atomic.Int32
	monitorExitHandle atomic.Uint32
	profileEnabled    atomic.Bool

	envMu sync.RWMutex
	env   map[string]string

	logger corelog.Logger
	harbor Harbor
	timer  Timer

	dispatcher *dispatcher
	monitor    *monitor
	metrics    *Metrics

	startedOnce sync.Once
	stopOnce    sync.Once
}

// New creates a Node. Call Start to spin up the worker pool and
// monitor before launching actors.
func New(cfg Config) *Node {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	logger := cfg.Logger
	if logger == nil {
		logger = corelog.Default()
	}
	n := &Node{
		localNodeID: cfg.LocalNodeID,
		startTime:   time.Now(),
		rq:          newReadyQueue(),
		env:         make(map[string]string),
		logger:      logger,
		harbor:      cfg.Harbor,
	}
	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	n.registry = newRegistry(cfg.LocalNodeID)
	n.profileEnabled.Store(cfg.ProfileEnabled)
	n.metrics = NewMetrics(registerer)
	threshold := cfg.MonitorThreshold
	if threshold <= 0 {
		threshold = 5 * time.Second
	}
	n.dispatcher = newDispatcher(n, cfg.Workers)
	n.monitor = newMonitor(n, cfg.Workers, threshold)
	return n
}

// Metrics exposes the node's Prometheus collectors, e.g. for mounting
// promhttp.HandlerFor(registerer, ...) in an admin surface.
func (n *Node) Metrics() *Metrics { return n.metrics }

// Start launches the worker pool and the monitor goroutine.
func (n *Node) Start() {
	n.startedOnce.Do(func() {
		n.dispatcher.start()
		n.monitor.start()
	})
}

// Stop closes the ready queue (unblocking workers) and stops the
// monitor. It does not retire any context; call Abort first if a full
// shutdown is wanted.
func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		n.monitor.stop()
		n.rq.close()
		n.dispatcher.wait()
	})
}

// SetHarbor installs the remote-transport collaborator after
// construction (useful when the harbor itself needs a reference back
// to the node to inject inbound messages via Push).
func (n *Node) SetHarbor(h Harbor) { n.harbor = h }

// SetTimer installs the TIMEOUT command's collaborator.
func (n *Node) SetTimer(t Timer) { n.timer = t }

// LocalNodeID returns the configured node id.
func (n *Node) LocalNodeID() uint8 { return n.localNodeID }

// TotalContexts returns the live (non-reserved) context count.
func (n *Node) TotalContexts() int32 { return n.totalContexts.Load() }

// StartTime is the node's creation instant, for the STARTTIME command.
func (n *Node) StartTime() time.Time { return n.startTime }

// SetProfile toggles per-message cpu accounting.
func (n *Node) SetProfile(on bool) { n.profileEnabled.Store(on) }
func (n *Node) Profile() bool      { return n.profileEnabled.Load() }

// SetMonitorExit installs the handle notified whenever any context
// dies (the MONITOR command).
func (n *Node) SetMonitorExit(h Handle) { n.monitorExitHandle.Store(uint32(h)) }
func (n *Node) MonitorExit() Handle     { return Handle(n.monitorExitHandle.Load()) }

func (n *Node) notifyMonitorExit(dead Handle) {
	target := Handle(n.monitorExitHandle.Load())
	if target == InvalidHandle {
		return
	}
	msg := &Message{Source: dead, Session: 0, Type: PTypeError, Payload: nil}
	_ = n.Push(target, msg) // best effort; the exit-monitor actor may itself be gone
}

// Grab resolves a handle to a live context, incrementing its ref
// count. Callers must drop the reference with Context.Release when done
// (see Push/Send for the common case, which needs no grab).
func (n *Node) Grab(h Handle) (*Context, bool) { return n.registry.grab(h) }

// Find resolves a bound name to a handle.
func (n *Node) Find(name string) (Handle, bool) { return n.registry.find(name) }

// Name binds name to handle.
func (n *Node) Name(handle Handle, name string) error { return n.registry.name(handle, name) }

// GetEnv/SetEnv back the GETENV/SETENV commands.
func (n *Node) GetEnv(key string) (string, bool) {
	n.envMu.RLock()
	defer n.envMu.RUnlock()
	v, ok := n.env[key]
	return v, ok
}

func (n *Node) SetEnv(key, value string) {
	n.envMu.Lock()
	defer n.envMu.Unlock()
	n.env[key] = value
}
