// Package livereload pushes registry updates to connected browsers and
// tools over socket.io.
package livereload

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/zishang520/socket.io/v2/socket"
)

// UpdateEvent is emitted after the generated registry file changes.
const UpdateEvent = "icons:updated"

// Path is where the hub is mounted.
const Path = "/socket.io/"

// Update is the payload of UpdateEvent.
type Update struct {
	Dst   string `json:"dst"`
	Bytes int    `json:"bytes"`
}

// Hub is a socket.io server broadcasting updates to every client.
type Hub struct {
	server  *socket.Server
	clients atomic.Int64
}

// NewHub creates a hub. Connection events are logged with the logger
// carried by ctx.
func NewHub(ctx context.Context) *Hub {
	logger := ctxlog.FromContext(ctx).With("component", "livereload")
	h := &Hub{server: socket.NewServer(nil, nil)}

	h.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		h.clients.Add(1)
		logger.Debug("Client connected.", "sid", client.Id())

		client.On("disconnect", func(reason ...any) {
			h.clients.Add(-1)
			logger.Debug("Client disconnected.", "sid", client.Id(), "reason", reason)
		})
	})
	return h
}

// Handler serves the socket.io protocol. Mount it at Path.
func (h *Hub) Handler() http.Handler {
	return h.server.ServeHandler(nil)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

// Broadcast sends u to every connected client.
func (h *Hub) Broadcast(ctx context.Context, u Update) {
	ctxlog.FromContext(ctx).Debug("Broadcasting update.", "event", UpdateEvent, "dst", u.Dst, "clients", h.Clients())
	h.server.Emit(UpdateEvent, map[string]any{"dst": u.Dst, "bytes": u.Bytes})
}

// Close disconnects all clients and shuts the server down.
func (h *Hub) Close() {
	h.server.Close(nil)
}
