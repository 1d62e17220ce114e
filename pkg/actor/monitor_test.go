package actor

import (
	"testing"
	"time"
)

func TestMonitorFlagsStuckSlotAfterThreshold(t *testing.T) {
	n := New(Config{Workers: 1, MonitorThreshold: 40 * time.Millisecond})
	m := newMonitor(n, 1, 40*time.Millisecond)

	name := uniqueModuleName("monitor-unit")
	Register(name, &echoTestModule{})
	ctx, err := n.Launch(name, "")
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	m.enter(0, ctx, InvalidHandle, ctx.Handle())
	// Never call exit: simulates a callback that never returns.

	deadline := time.After(2 * time.Second)
	for {
		m.sample()
		if ctx.Endless() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("monitor never flagged the stuck slot")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestMonitorClearsSlotOnExit(t *testing.T) {
	n := New(Config{Workers: 1, MonitorThreshold: time.Hour})
	m := newMonitor(n, 1, time.Hour)

	name := uniqueModuleName("monitor-exit")
	Register(name, &echoTestModule{})
	ctx, err := n.Launch(name, "")
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	m.enter(0, ctx, InvalidHandle, ctx.Handle())
	m.exit(0)
	m.sample()

	slot := m.slots[0]
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.ctx != nil {
		t.Fatal("slot still references a context after exit")
	}
}

func TestMonitorEndToEndViaDispatcher(t *testing.T) {
	n := New(Config{Workers: 2, MonitorThreshold: 50 * time.Millisecond})
	n.Start()
	defer n.Stop()

	block := make(chan struct{})
	name := uniqueModuleName("monitor-e2e")
	Register(name, &blockingTestModule{block: block})

	ctx, err := n.Launch(name, "")
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if _, err := n.Send(InvalidHandle, ctx.Handle(), PTypeText, 0, nil, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for !ctx.Endless() {
		select {
		case <-deadline:
			close(block)
			t.Fatal("endless flag never set")
		case <-time.After(20 * time.Millisecond):
		}
	}
	close(block)
}

type blockingTestModule struct {
	block chan struct{}
}

func (m *blockingTestModule) Create() (any, error) { return nil, nil }

func (m *blockingTestModule) Init(_ any, ctx *Context, _ string) error {
	ctx.RegisterCallback(func(_ *Context, _ any, _ PType, _ int32, _ Handle, _ []byte) bool {
		<-m.block
		return false
	}, nil)
	return nil
}

func (m *blockingTestModule) Release(any)     {}
func (m *blockingTestModule) Signal(any, int) {}
