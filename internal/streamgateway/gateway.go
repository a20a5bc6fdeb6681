// Package streamgateway is an optional websocket bridge in front of an
// Orchestrator. It serializes orchestration progress as JSON frames so a
// UI can watch a run live; the orchestrator itself stays transport
// agnostic and works identically without this package wired in.
package streamgateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/agentcore/orchestrator/internal/intent"
	"github.com/agentcore/orchestrator/internal/orchestrator"
	"github.com/gorilla/websocket"
)

// Frame is one JSON message sent to a connected client. Kind is one of
// "progress", "result", or "error".
type Frame struct {
	Kind    string      `json:"kind"`
	Phase   string      `json:"phase,omitempty"`
	Current int         `json:"current,omitempty"`
	Total   int         `json:"total,omitempty"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// request is the inbound client message: one orchestration request per
// websocket message, matching the CLI's single-shot run semantics.
type request struct {
	Message        string `json:"message"`
	SessionID      string `json:"session_id"`
	Parallel       *bool  `json:"parallel"`
	EnableRecovery *bool  `json:"enable_recovery"`
}

// Gateway upgrades HTTP connections and runs one Orchestrate call per
// inbound client message, streaming progress frames back as they occur.
type Gateway struct {
	Orch     *orchestrator.Orchestrator
	Upgrader websocket.Upgrader
}

// New builds a Gateway with permissive CORS, matching a local dev UI.
func New(orch *orchestrator.Orchestrator) *Gateway {
	return &Gateway{
		Orch: orch,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler, upgrading the connection and
// servicing requests until the client disconnects.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("streamgateway: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("streamgateway: connection closed unexpectedly", "error", err)
			}
			return
		}
		g.handleRequest(r.Context(), conn, req)
	}
}

func (g *Gateway) handleRequest(ctx context.Context, conn *websocket.Conn, req request) {
	opts := orchestrator.DefaultOptions()
	opts.SessionID = req.SessionID
	if req.Parallel != nil {
		opts.Parallel = *req.Parallel
	}
	if req.EnableRecovery != nil {
		opts.EnableRecovery = *req.EnableRecovery
	}
	opts.OnProgress = func(phase string, current, total int, message string) {
		_ = conn.WriteJSON(Frame{Kind: "progress", Phase: phase, Current: current, Total: total, Message: message})
	}

	res, err := g.Orch.Orchestrate(ctx, req.Message, intent.Context{Message: req.Message}, opts)
	if err != nil {
		_ = conn.WriteJSON(Frame{Kind: "error", Error: err.Error()})
		return
	}
	_ = conn.WriteJSON(Frame{Kind: "result", Result: res})
}
