// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package dashboard mirrors Controller Memory over a local WebSocket as
// JSON, for the "operator dashboards" consumer class spec.md section 1
// names but leaves as an external collaborator. It is read-only: a
// dashboard client cannot inject commands, only observe.
//
// The teacher only ever dials a WebSocket as a client
// (cmd/connection.go's WebSocketConnection, used to reach a Slate
// router). This package repurposes gorilla/websocket server-side: an
// http.Server with an Upgrader accepting dashboard connections, and a
// broadcast hub pushing one JSON message per Publish call to every
// connected client, patterned on the teacher's own
// read-loop-feeds-a-channel idiom (cmd/control.go's readerLoop) turned
// around into a write-loop-drains-a-channel.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prjemian/cs800sim/internal/memory"
)

// Snapshot is the JSON shape pushed to every connected dashboard client:
// Controller Memory's snapshot plus a server-assigned timestamp.
type Snapshot struct {
	Time    time.Time         `json:"time"`
	Phase   string            `json:"phase"`
	RunMode string            `json:"run_mode"`
	Values  map[string]uint16 `json:"values"`
}

// Hub broadcasts status snapshots to every connected WebSocket client.
// It owns no Controller Memory itself; Publish is called by Watch, which
// snapshots Controller Memory on its own interval. The status emitter
// does not call Publish.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub creates an empty broadcast hub. The upgrader's origin check is
// left permissive (CheckOrigin always true) since cs800sim has no
// authentication anywhere, per spec.md's explicit non-goal.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP upgrades the connection, registers the client with the hub,
// and writes each published message to it until a write fails.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("dashboard: upgrade failed", "err", err)
		return
	}

	out := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[conn] = out
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Dashboard clients never send commands (read-only, per this
	// package's doc comment); drain and discard reads so gorilla's
	// internal pong handling still runs, and treat any read error as
	// disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for msg := range out {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Publish marshals snap to JSON and pushes it to every connected client.
// A client whose outbound buffer is full is dropped rather than
// blocking the publisher, matching spec.md's "no back-pressure" rule in
// section 5.
func (h *Hub) Publish(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Warn("dashboard: marshal failed", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- data:
		default:
			h.logger.Warn("dashboard: dropping slow client")
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// FromMemory builds a Snapshot from a Controller Memory snapshot at the
// given time.
func FromMemory(snap memory.Snapshot, at time.Time) Snapshot {
	return Snapshot{Time: at, Phase: snap.Phase, RunMode: snap.RunMode, Values: snap.Values}
}

// Watch republishes Controller Memory's state to the hub every interval
// until ctx is cancelled. It is an alternative to wiring Publish
// directly into the status emitter, useful when the dashboard should run
// on its own cadence independent of the UDP broadcast rate.
func Watch(ctx context.Context, mem *memory.Memory, h *Hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Publish(FromMemory(mem.Snapshot(), now))
		}
	}
}
