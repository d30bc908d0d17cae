// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

// Package realtime fans out per-user events over WebSocket. Every
// connection is scoped to the authenticated user; events published for
// one user are never visible to another user's connections.
package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/hbarton/ledgerd/internal/logging"
)

// Event names pushed to clients.
const (
	EventConnected          = "socket:connected"
	EventTransactionCreated = "transaction:created"
	EventTransactionUpdated = "transaction:updated"
	EventTransactionDeleted = "transaction:deleted"
)

// Event is a single message pushed to a client.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// envelope is an event addressed to one user's connections.
type envelope struct {
	userID string
	event  Event
}

// Hub maintains the set of active clients grouped by user and routes
// published events to the owning user's connections.
type Hub struct {
	// scopes maps user id -> that user's connected clients.
	scopes     map[string]map[*Client]bool
	publish    chan envelope
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		scopes:     make(map[string]map[*Client]bool),
		publish:    make(chan envelope, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// RunWithContext runs the hub until ctx is canceled. Designed for
// suture supervision: on cancellation all clients are closed and
// ctx.Err() is returned.
//
// Priority-based selection keeps behavior predictable when multiple
// channels are ready: shutdown first, then client lifecycle, then
// published events.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check).
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle (non-blocking check).
		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		// Priority 3: published events, or block until anything is ready.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case env := <-h.publish:
			h.deliver(env)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	scope, ok := h.scopes[client.userID]
	if !ok {
		scope = make(map[*Client]bool)
		h.scopes[client.userID] = scope
	}
	scope[client] = true
	total := h.totalLocked()
	h.mu.Unlock()

	// Handshake acknowledgment for the new connection only.
	select {
	case client.send <- Event{Name: EventConnected, Data: map[string]bool{"ok": true}}:
	default:
	}

	wsConnectionsActive.Inc()
	logging.Info().
		Str("user_id", client.userID).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	removed := false
	if scope, ok := h.scopes[client.userID]; ok {
		if _, ok := scope[client]; ok {
			delete(scope, client)
			close(client.send)
			removed = true
		}
		if len(scope) == 0 {
			delete(h.scopes, client.userID)
		}
	}
	total := h.totalLocked()
	h.mu.Unlock()

	if removed {
		wsConnectionsActive.Dec()
		logging.Info().
			Str("user_id", client.userID).
			Int("total_clients", total).
			Msg("websocket client disconnected")
	}
}

// deliver sends an event to every connection of the addressed user in
// client-id order. Clients with a full send buffer are dropped; a slow
// consumer must not stall everyone else.
func (h *Hub) deliver(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	scope, ok := h.scopes[env.userID]
	if !ok {
		return
	}

	clients := make([]*Client, 0, len(scope))
	for client := range scope {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- env.event:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(scope, client)
		wsConnectionsActive.Dec()
		logging.Warn().
			Str("user_id", env.userID).
			Msg("dropping slow websocket client")
	}
	if len(scope) == 0 {
		delete(h.scopes, env.userID)
	}
}

// shutdown closes every client, in id order per scope.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := 0
	for userID, scope := range h.scopes {
		clients := make([]*Client, 0, len(scope))
		for client := range scope {
			clients = append(clients, client)
		}
		sort.Slice(clients, func(i, j int) bool {
			return clients[i].id < clients[j].id
		})
		for _, client := range clients {
			close(client.send)
			closed++
		}
		delete(h.scopes, userID)
	}
	wsConnectionsActive.Set(0)
	logging.Info().
		Str("component", "realtime-hub").
		Int("clients_closed", closed).
		Msg("realtime hub stopped")
}

// Publish routes an event to every connection of userID. Non-blocking:
// when the hub's queue is full the event is dropped with a warning, the
// HTTP request that triggered it must not stall.
func (h *Hub) Publish(userID, name string, data interface{}) {
	select {
	case h.publish <- envelope{userID: userID, event: Event{Name: name, Data: data}}:
		eventsPublishedTotal.WithLabelValues(name).Inc()
	default:
		logging.Warn().Str("event", name).Msg("publish queue full, dropping event")
		eventsDroppedTotal.WithLabelValues(name).Inc()
	}
}

// CountForUser returns the number of open connections for userID.
func (h *Hub) CountForUser(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scopes[userID])
}

// ClientCount returns the number of connected clients across all users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalLocked()
}

// totalLocked counts clients across scopes. Caller holds mu.
func (h *Hub) totalLocked() int {
	total := 0
	for _, scope := range h.scopes {
		total += len(scope)
	}
	return total
}
