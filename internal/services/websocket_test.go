package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sysmonitor/internal/models"
)

func startHub(t *testing.T, store *SnapshotStore) (*WebSocketHub, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	hub := NewWebSocketHub(store, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(stopped)
	}()
	return hub, cancel, stopped
}

func receive(t *testing.T, client *ClientConnection) WebSocketMessage {
	t.Helper()
	select {
	case msg, ok := <-client.Send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return WebSocketMessage{}
}

func TestHubGreetsAndBroadcasts(t *testing.T) {
	store := NewSnapshotStore()
	store.Publish(&models.Snapshot{Seq: 1})
	hub, cancel, stopped := startHub(t, store)
	defer func() { cancel(); <-stopped }()

	client := NewClientConnection("a", nil)
	if !hub.Register(client) {
		t.Fatal("Register on a running hub should succeed")
	}

	greeting := receive(t, client)
	if greeting.Type != MessageSnapshot || greeting.Data.(*models.Snapshot).Seq != 1 {
		t.Errorf("greeting = %+v", greeting)
	}

	store.Publish(&models.Snapshot{Seq: 2})
	msg := receive(t, client)
	if msg.Data.(*models.Snapshot).Seq != 2 {
		t.Errorf("broadcast seq = %d, want 2", msg.Data.(*models.Snapshot).Seq)
	}
}

func TestHubUnregisterIgnoresStaleConnection(t *testing.T) {
	hub, cancel, stopped := startHub(t, NewSnapshotStore())
	defer func() { cancel(); <-stopped }()

	first := NewClientConnection("same", nil)
	second := NewClientConnection("same", nil)
	hub.Register(first)
	hub.Register(second)

	hub.Unregister(first)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("client count = %d, want 1", got)
	}
	if !hub.SendMessage(second, WebSocketMessage{Type: MessagePong}) {
		t.Error("current connection should still receive messages")
	}
	if hub.SendMessage(first, WebSocketMessage{Type: MessagePong}) {
		t.Error("replaced connection should not receive messages")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, cancel, stopped := startHub(t, NewSnapshotStore())

	client := NewClientConnection("a", nil)
	hub.Register(client)
	cancel()
	<-stopped

	if _, ok := <-client.Send; ok {
		t.Error("send channel should be closed after shutdown")
	}
	if hub.Register(NewClientConnection("late", nil)) {
		t.Error("Register after shutdown should report false")
	}
	hub.Unregister(client) // must not block
}
