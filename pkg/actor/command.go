package actor

import (
	"strconv"
	"strings"
	"time"

	"github.com/fluxorio/corenet/pkg/corelog"
)

// Command implements C7, the in-process text-command surface (spec.md
// §4.6). ctx is the calling context (required for every command except
// the ones that operate node-wide without a caller identity); unknown
// commands and malformed parameters return "".
func (n *Node) Command(ctx *Context, cmd, param string) string {
	switch strings.ToUpper(cmd) {
	case "TIMEOUT":
		return n.cmdTimeout(ctx, param)
	case "REG":
		return n.cmdReg(ctx, param)
	case "QUERY":
		return n.cmdQuery(param)
	case "NAME":
		return n.cmdName(param)
	case "EXIT":
		n.Kill(ctx.Handle())
		return ""
	case "KILL":
		if h, ok := n.resolveRef(param); ok {
			n.Kill(h)
		}
		return ""
	case "LAUNCH":
		return n.cmdLaunch(param)
	case "GETENV":
		v, ok := n.GetEnv(strings.TrimSpace(param))
		if !ok {
			return ""
		}
		return v
	case "SETENV":
		return n.cmdSetenv(param)
	case "STARTTIME":
		return strconv.FormatInt(n.startTime.Unix(), 10)
	case "ABORT":
		n.Abort()
		return ""
	case "MONITOR":
		return n.cmdMonitor(param)
	case "STAT":
		return n.cmdStat(ctx, param)
	case "LOGON":
		return n.cmdLogon(param)
	case "LOGOFF":
		return n.cmdLogoff(param)
	case "SIGNAL":
		return n.cmdSignal(param)
	default:
		return ""
	}
}

// resolveRef accepts either a ':hex' handle literal or a '.name' alias.
func (n *Node) resolveRef(s string) (Handle, bool) {
	s = strings.TrimSpace(s)
	if h, ok := ParseHandleText(s); ok {
		return h, true
	}
	if IsNameText(s) {
		return n.registry.find(s)
	}
	return 0, false
}

func (n *Node) cmdTimeout(ctx *Context, param string) string {
	if n.timer == nil {
		return ""
	}
	cs, err := strconv.Atoi(strings.TrimSpace(param))
	if err != nil {
		return ""
	}
	session := n.timer.After(n, ctx.Handle(), cs)
	return strconv.FormatInt(int64(session), 10)
}

func (n *Node) cmdReg(ctx *Context, param string) string {
	param = strings.TrimSpace(param)
	if param == "" {
		return ctx.Handle().String()
	}
	if !IsNameText(param) {
		return ""
	}
	if err := n.registry.name(ctx.Handle(), param); err != nil {
		return ""
	}
	return param
}

func (n *Node) cmdQuery(param string) string {
	h, ok := n.registry.find(strings.TrimSpace(param))
	if !ok {
		return ""
	}
	return h.String()
}

func (n *Node) cmdName(param string) string {
	fields := strings.Fields(param)
	if len(fields) != 2 {
		return ""
	}
	name, ref := fields[0], fields[1]
	if !IsNameText(name) {
		return ""
	}
	h, ok := ParseHandleText(ref)
	if !ok {
		return ""
	}
	if err := n.registry.name(h, name); err != nil {
		return ""
	}
	return name
}

func (n *Node) cmdLaunch(param string) string {
	fields := strings.SplitN(strings.TrimSpace(param), " ", 2)
	if len(fields) == 0 || fields[0] == "" {
		return ""
	}
	args := ""
	if len(fields) == 2 {
		args = fields[1]
	}
	ctx, err := n.Launch(fields[0], args)
	if err != nil {
		return ""
	}
	return ctx.Handle().String()
}

func (n *Node) cmdSetenv(param string) string {
	fields := strings.SplitN(strings.TrimSpace(param), " ", 2)
	if len(fields) == 0 || fields[0] == "" {
		return ""
	}
	value := ""
	if len(fields) == 2 {
		value = fields[1]
	}
	n.SetEnv(fields[0], value)
	return value
}

func (n *Node) cmdMonitor(param string) string {
	param = strings.TrimSpace(param)
	if param == "" {
		cur := n.MonitorExit()
		if cur == InvalidHandle {
			return ""
		}
		return cur.String()
	}
	h, ok := n.resolveRef(param)
	if !ok {
		return ""
	}
	n.SetMonitorExit(h)
	return h.String()
}

func (n *Node) cmdStat(ctx *Context, param string) string {
	switch strings.TrimSpace(param) {
	case "mqlen":
		return strconv.Itoa(ctx.mbox.length())
	case "endless":
		if ctx.takeEndless() {
			return "1"
		}
		return "0"
	case "cpu":
		return strconv.FormatInt(ctx.cpuCostUs.Load(), 10)
	case "time":
		start := ctx.cpuStartUs.Load()
		if start == 0 {
			return "0"
		}
		return strconv.FormatInt(time.Now().UnixMicro()-start, 10)
	case "message":
		return strconv.FormatInt(ctx.messageCount.Load(), 10)
	case "prometheus":
		return "mqlen=" + strconv.Itoa(ctx.mbox.length()) +
			" cpu=" + strconv.FormatInt(ctx.cpuCostUs.Load(), 10) +
			" message=" + strconv.FormatInt(ctx.messageCount.Load(), 10)
	default:
		return ""
	}
}

func (n *Node) cmdLogon(param string) string {
	h, ok := n.resolveRef(param)
	if !ok {
		return ""
	}
	target, ok := n.registry.grab(h)
	if !ok {
		return ""
	}
	defer release(target)
	l, err := corelog.NewFile(logPathForHandle(h), false)
	if err != nil {
		return ""
	}
	target.setLogSink(l)
	return ""
}

func (n *Node) cmdLogoff(param string) string {
	h, ok := n.resolveRef(param)
	if !ok {
		return ""
	}
	target, ok := n.registry.grab(h)
	if !ok {
		return ""
	}
	defer release(target)
	target.clearLogSink()
	return ""
}

func (n *Node) cmdSignal(param string) string {
	fields := strings.Fields(param)
	if len(fields) == 0 {
		return ""
	}
	h, ok := n.resolveRef(fields[0])
	if !ok {
		return ""
	}
	sig := 0
	if len(fields) >= 2 {
		if v, err := strconv.Atoi(fields[1]); err == nil {
			sig = v
		}
	}
	target, ok := n.registry.grab(h)
	if !ok {
		return ""
	}
	defer release(target)
	mod, ok := Lookup(target.moduleName)
	if ok {
		mod.Signal(target.instance, sig)
	}
	return ""
}

// logPathForHandle is the LOGON command's default per-context log file
// naming scheme: one file per handle under the node's working directory.
func logPathForHandle(h Handle) string {
	return "corenet-" + strings.TrimPrefix(h.String(), ":") + ".log"
}
