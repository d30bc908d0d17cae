// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package realtime

import (
	"context"
	"testing"
	"time"
)

// newTestClient builds a client without a network connection; the pumps
// are never started so the send channel is observed directly.
func newTestClient(hub *Hub, userID string, buffer int) *Client {
	return &Client{
		id:     clientIDCounter.Add(1),
		userID: userID,
		hub:    hub,
		conn:   nil,
		send:   make(chan Event, buffer),
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("hub did not stop")
		}
	})
	return hub, cancel
}

func waitForEvent(t *testing.T, ch chan Event, want string) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("send channel closed while waiting for %q", want)
		}
		if ev.Name != want {
			t.Fatalf("event = %q, want %q", ev.Name, want)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %q", want)
		return Event{}
	}
}

func waitForCount(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.CountForUser(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("CountForUser(%q) = %d, want %d", userID, hub.CountForUser(userID), want)
}

func TestRegisterSendsHandshake(t *testing.T) {
	hub, _ := startHub(t)

	client := newTestClient(hub, "user-1", 16)
	hub.Register <- client

	ev := waitForEvent(t, client.send, EventConnected)
	data, ok := ev.Data.(map[string]bool)
	if !ok || !data["ok"] {
		t.Errorf("handshake data = %#v, want {ok:true}", ev.Data)
	}
	waitForCount(t, hub, "user-1", 1)
}

func TestPublishScopedToUser(t *testing.T) {
	hub, _ := startHub(t)

	alice1 := newTestClient(hub, "alice", 16)
	alice2 := newTestClient(hub, "alice", 16)
	bob := newTestClient(hub, "bob", 16)
	for _, c := range []*Client{alice1, alice2, bob} {
		hub.Register <- c
		waitForEvent(t, c.send, EventConnected)
	}

	hub.Publish("alice", EventTransactionCreated, map[string]string{"id": "t1"})

	waitForEvent(t, alice1.send, EventTransactionCreated)
	waitForEvent(t, alice2.send, EventTransactionCreated)

	// Bob must see nothing.
	select {
	case ev := <-bob.send:
		t.Fatalf("bob received %q, want nothing", ev.Name)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishToUserWithNoConnections(t *testing.T) {
	hub, _ := startHub(t)

	// Must not block or panic.
	hub.Publish("ghost", EventTransactionDeleted, nil)

	client := newTestClient(hub, "alice", 16)
	hub.Register <- client
	waitForEvent(t, client.send, EventConnected)

	hub.Publish("alice", EventTransactionUpdated, nil)
	waitForEvent(t, client.send, EventTransactionUpdated)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub, _ := startHub(t)

	client := newTestClient(hub, "alice", 16)
	hub.Register <- client
	waitForEvent(t, client.send, EventConnected)

	hub.Unregister <- client
	waitForCount(t, hub, "alice", 0)

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed after unregister")
	}

	// Unregistering twice is harmless.
	hub.Unregister <- client
	waitForCount(t, hub, "alice", 0)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub, _ := startHub(t)

	// Buffer of one: the handshake fills it, nothing is drained.
	slow := newTestClient(hub, "alice", 1)
	healthy := newTestClient(hub, "alice", 16)
	hub.Register <- slow
	hub.Register <- healthy
	waitForEvent(t, healthy.send, EventConnected)
	waitForCount(t, hub, "alice", 2)

	hub.Publish("alice", EventTransactionCreated, nil)

	waitForEvent(t, healthy.send, EventTransactionCreated)
	waitForCount(t, hub, "alice", 1)
}

func TestShutdownClosesAllClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	clients := []*Client{
		newTestClient(hub, "alice", 16),
		newTestClient(hub, "bob", 16),
	}
	for _, c := range clients {
		hub.Register <- c
		waitForEvent(t, c.send, EventConnected)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	for _, c := range clients {
		select {
		case _, ok := <-c.send:
			if ok {
				continue // drain pending events until close
			}
		case <-time.After(time.Second):
			t.Error("client send channel not closed on shutdown")
		}
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after shutdown, want 0", hub.ClientCount())
	}
}
