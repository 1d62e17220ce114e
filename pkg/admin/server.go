// Package admin exposes a node's command surface and metrics over the
// network: a fasthttp listener for /healthz and /command (grounded on
// the teacher's pkg/web/fasthttp_server.go, trimmed to a direct
// valyala/fasthttp.Server instead of re-deriving its BaseServer/router
// abstraction — the admin surface here is a handful of fixed routes,
// not a general-purpose app router), guarded by the same
// golang-jwt/jwt/v5 bearer-token pattern as the teacher's
// pkg/web/middleware/auth/jwt.go, plus a second, smaller net/http
// listener carrying /metrics (promhttp) and /ws/stat (gorilla/websocket)
// — protocols neither of which fasthttp serves without extra
// dependencies the teacher does not carry.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"

	"github.com/fluxorio/corenet/pkg/actor"
	"github.com/fluxorio/corenet/pkg/corelog"
)

// Config configures both listeners.
type Config struct {
	// Addr serves /healthz and /command (fasthttp).
	Addr string
	// MetricsAddr serves /metrics and /ws/stat (net/http).
	MetricsAddr string
	// JWTSecret signs/verifies bearer tokens required by mutating
	// commands (LAUNCH, KILL, ABORT, SIGNAL, SETENV, EXIT, NAME, REG,
	// LOGON, LOGOFF, MONITOR). Other commands (QUERY, STAT, GETENV,
	// STARTTIME, TIMEOUT) do not require a token.
	JWTSecret string
	Logger    corelog.Logger
}

var mutatingCommands = map[string]bool{
	"LAUNCH": true, "KILL": true, "ABORT": true, "SIGNAL": true,
	"SETENV": true, "EXIT": true, "NAME": true, "REG": true,
	"LOGON": true, "LOGOFF": true, "MONITOR": true,
}

// Server owns both listeners and the wsHub broadcasting node snapshots
// (live context count and start time).
type Server struct {
	cfg  Config
	node *actor.Node
	hub  *wsHub

	fast *fasthttp.Server
	http *http.Server
}

// New builds a Server bound to node; call Start to begin listening.
func New(node *actor.Node, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = corelog.Default()
	}
	s := &Server{cfg: cfg, node: node, hub: newWSHub()}

	s.fast = &fasthttp.Server{Handler: s.fastHandler}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws/stat", s.hub.serveWS)
	s.http = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	return s
}

// Start launches both listeners in background goroutines and begins
// broadcasting a once-a-second snapshot (live context count and start
// time) to connected websocket clients.
func (s *Server) Start() {
	go func() {
		if err := s.fast.ListenAndServe(s.cfg.Addr); err != nil {
			s.cfg.Logger.Errorf("admin: fasthttp listener stopped: %v", err)
		}
	}()
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.cfg.Logger.Errorf("admin: metrics listener stopped: %v", err)
		}
	}()
	go s.hub.broadcastLoop(s.node)
}

// Stop gracefully shuts down both listeners.
func (s *Server) Stop(ctx context.Context) {
	_ = s.fast.ShutdownWithContext(ctx)
	_ = s.http.Shutdown(ctx)
	s.hub.close()
}

func (s *Server) fastHandler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		s.handleHealthz(ctx)
	case "/command":
		s.handleCommand(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (s *Server) handleHealthz(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json")
	_ = json.NewEncoder(ctx).Encode(map[string]any{
		"status":    "ok",
		"contexts":  s.node.TotalContexts(),
		"startTime": s.node.StartTime().Unix(),
	})
}

type commandRequest struct {
	Handle  string `json:"handle"`
	Command string `json:"command"`
	Param   string `json:"param"`
}

func (s *Server) handleCommand(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}

	var req commandRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}

	if mutatingCommands[strings.ToUpper(req.Command)] {
		if err := s.authorize(ctx); err != nil {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			_, _ = ctx.WriteString(err.Error())
			return
		}
	}

	targetHandle, ok := actor.ParseHandleText(req.Handle)
	if !ok {
		targetHandle, ok = s.node.Find(req.Handle)
	}
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}
	grabbed, ok := s.node.Grab(targetHandle)
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}
	defer grabbed.Release()

	result := s.node.Command(grabbed, req.Command, req.Param)
	ctx.SetContentType("application/json")
	_ = json.NewEncoder(ctx).Encode(map[string]string{"result": result})
}

// authorize requires a valid HS256 bearer token signed with cfg.JWTSecret.
func (s *Server) authorize(ctx *fasthttp.RequestCtx) error {
	if s.cfg.JWTSecret == "" {
		return fmt.Errorf("admin: JWTSecret not configured, mutating commands disabled")
	}
	auth := string(ctx.Request.Header.Peek("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return fmt.Errorf("missing bearer token")
	}
	raw := strings.TrimPrefix(auth, prefix)

	_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	return err
}

// wsHub fans out a periodic STAT-like snapshot to every connected
// /ws/stat client, grounded on the teacher's pkg/core/eventbus_ws.go
// fan-out pattern.
type wsHub struct {
	upgrader websocket.Upgrader
	register chan *websocket.Conn
	done     chan struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		register: make(chan *websocket.Conn),
		done:     make(chan struct{}),
	}
}

func (h *wsHub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

func (h *wsHub) broadcastLoop(node *actor.Node) {
	var conns []*websocket.Conn
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-h.done:
			for _, c := range conns {
				c.Close()
			}
			return
		case c := <-h.register:
			conns = append(conns, c)
		case <-t.C:
			snapshot := map[string]any{
				"contexts":  node.TotalContexts(),
				"startTime": node.StartTime().Unix(),
			}
			live := conns[:0]
			for _, c := range conns {
				if err := c.WriteJSON(snapshot); err != nil {
					c.Close()
					continue
				}
				live = append(live, c)
			}
			conns = live
		}
	}
}

func (h *wsHub) close() { close(h.done) }
