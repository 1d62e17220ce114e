package actor

import (
	"strconv"
	"testing"
	"time"
)

func newCommandTestNode(t *testing.T) (*Node, *Context) {
	t.Helper()
	n := New(Config{Workers: 2})
	n.Start()
	t.Cleanup(n.Stop)

	name := uniqueModuleName("command-target")
	Register(name, &echoTestModule{})
	ctx, err := n.Launch(name, "")
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	return n, ctx
}

func TestCommandRegQuery(t *testing.T) {
	n, ctx := newCommandTestNode(t)

	got := n.Command(ctx, "REG", ".cmdtest")
	if got != ".cmdtest" {
		t.Fatalf("REG = %q, want %q", got, ".cmdtest")
	}

	got = n.Command(ctx, "QUERY", ".cmdtest")
	if got != ctx.Handle().String() {
		t.Fatalf("QUERY = %q, want %q", got, ctx.Handle().String())
	}

	// REG with no param returns the caller's own handle text.
	got = n.Command(ctx, "REG", "")
	if got != ctx.Handle().String() {
		t.Fatalf("REG() = %q, want %q", got, ctx.Handle().String())
	}
}

func TestCommandNameBindsArbitraryHandle(t *testing.T) {
	n, ctx := newCommandTestNode(t)

	got := n.Command(ctx, "NAME", ".other "+ctx.Handle().String())
	if got != ".other" {
		t.Fatalf("NAME = %q, want %q", got, ".other")
	}
	if got := n.Command(ctx, "QUERY", ".other"); got != ctx.Handle().String() {
		t.Fatalf("QUERY(.other) = %q, want %q", got, ctx.Handle().String())
	}
}

func TestCommandGetenvSetenv(t *testing.T) {
	n, ctx := newCommandTestNode(t)

	got := n.Command(ctx, "SETENV", "greeting hello world")
	if got != "hello world" {
		t.Fatalf("SETENV = %q, want %q", got, "hello world")
	}
	got = n.Command(ctx, "GETENV", "greeting")
	if got != "hello world" {
		t.Fatalf("GETENV = %q, want %q", got, "hello world")
	}
	if got := n.Command(ctx, "GETENV", "missing"); got != "" {
		t.Fatalf("GETENV(missing) = %q, want empty", got)
	}
}

func TestCommandStarttimeIsUnixSeconds(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	got := n.Command(ctx, "STARTTIME", "")
	if _, err := strconv.ParseInt(got, 10, 64); err != nil {
		t.Fatalf("STARTTIME = %q, not an integer: %v", got, err)
	}
}

func TestCommandLaunchReturnsHandleOfNewContext(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	name := uniqueModuleName("command-launch-target")
	Register(name, &echoTestModule{})

	got := n.Command(ctx, "LAUNCH", name)
	if got == "" {
		t.Fatal("LAUNCH returned empty handle")
	}
	h, ok := ParseHandleText(got)
	if !ok {
		t.Fatalf("LAUNCH returned unparsable handle %q", got)
	}
	grabbed, ok := n.Grab(h)
	if !ok {
		t.Fatal("LAUNCH's returned handle does not resolve to a live context")
	}
	grabbed.Release()
}

func TestCommandLaunchUnknownModuleReturnsEmpty(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	if got := n.Command(ctx, "LAUNCH", "no-such-module-xyz"); got != "" {
		t.Fatalf("LAUNCH(unknown) = %q, want empty", got)
	}
}

func TestCommandKillRetiresTarget(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	name := uniqueModuleName("command-kill-target")
	Register(name, &echoTestModule{})
	victim, err := n.Launch(name, "")
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	n.Command(ctx, "KILL", victim.Handle().String())
	if _, ok := n.Grab(victim.Handle()); ok {
		t.Fatal("victim still resolvable after KILL")
	}
}

func TestCommandMonitorSetAndQuery(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	if got := n.Command(ctx, "MONITOR", ""); got != "" {
		t.Fatalf("MONITOR() before set = %q, want empty", got)
	}
	got := n.Command(ctx, "MONITOR", ctx.Handle().String())
	if got != ctx.Handle().String() {
		t.Fatalf("MONITOR(set) = %q, want %q", got, ctx.Handle().String())
	}
	if got := n.Command(ctx, "MONITOR", ""); got != ctx.Handle().String() {
		t.Fatalf("MONITOR() after set = %q, want %q", got, ctx.Handle().String())
	}
}

func TestCommandStatMqlenAndMessage(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	if got := n.Command(ctx, "STAT", "mqlen"); got != "0" {
		t.Fatalf("STAT mqlen = %q, want 0", got)
	}
	if got := n.Command(ctx, "STAT", "message"); got != "0" {
		t.Fatalf("STAT message = %q, want 0", got)
	}
	if got := n.Command(ctx, "STAT", "unknown-subcommand"); got != "" {
		t.Fatalf("STAT(unknown) = %q, want empty", got)
	}
}

// STAT "cpu" is the cumulative profiled callback cost; STAT "time" is
// the wall-clock age of the callback currently in flight, zero when
// idle. This test pins the idle baseline of both; the in-flight case
// for "time" is TestCommandStatTimeNonzeroWhileCallbackInFlight.
func TestCommandStatCPUAndTimeZeroWhenIdle(t *testing.T) {
	n, ctx := newCommandTestNode(t)

	if got := n.Command(ctx, "STAT", "time"); got != "0" {
		t.Fatalf("STAT time (idle) = %q, want 0", got)
	}
	if got := n.Command(ctx, "STAT", "cpu"); got != "0" {
		t.Fatalf("STAT cpu (idle, profiling never enabled) = %q, want 0", got)
	}
}

func TestCommandStatTimeNonzeroWhileCallbackInFlight(t *testing.T) {
	n := New(Config{Workers: 1})
	n.Start()
	t.Cleanup(n.Stop)

	block := make(chan struct{})
	name := uniqueModuleName("command-stat-time")
	Register(name, &blockingTestModule{block: block})
	ctx, err := n.Launch(name, "")
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if _, err := n.Send(InvalidHandle, ctx.Handle(), PTypeText, 0, nil, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if got := n.Command(ctx, "STAT", "time"); got != "0" {
			break
		}
		select {
		case <-deadline:
			close(block)
			t.Fatal("STAT time never went nonzero while callback blocked")
		case <-time.After(10 * time.Millisecond):
		}
	}
	close(block)

	deadline = time.After(2 * time.Second)
	for {
		if got := n.Command(ctx, "STAT", "time"); got == "0" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("STAT time never returned to 0 after callback exited")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCommandStatPrometheusAlias(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	got := n.Command(ctx, "STAT", "prometheus")
	want := "mqlen=0 cpu=0 message=0"
	if got != want {
		t.Fatalf("STAT prometheus = %q, want %q", got, want)
	}
}

func TestCommandAbortRetiresEverything(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	n.Command(ctx, "ABORT", "")
	if n.TotalContexts() != 0 {
		t.Fatalf("TotalContexts after ABORT = %d, want 0", n.TotalContexts())
	}
}

func TestCommandUnknownReturnsEmpty(t *testing.T) {
	n, ctx := newCommandTestNode(t)
	if got := n.Command(ctx, "NOSUCHCOMMAND", "anything"); got != "" {
		t.Fatalf("unknown command = %q, want empty", got)
	}
}
