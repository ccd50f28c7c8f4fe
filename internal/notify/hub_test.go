package notify

import (
	"context"
	"testing"
	"time"

	"github.com/fleetops/fleetops/internal/database"
)

func TestHub_BroadcastAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()
	hub.Stop() // repeated stops are safe

	done := make(chan struct{})
	go func() {
		hub.Broadcast([]byte("late message"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after Stop")
	}
}

func TestHub_ClientCountStartsEmpty(t *testing.T) {
	hub := NewHub()
	if hub.ClientCount() != 0 {
		t.Errorf("fresh hub client count = %d", hub.ClientCount())
	}
}

func TestPushChannel_SendWithoutClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	ch := NewPushChannel(hub)
	if ch.Name() != database.ChannelPush {
		t.Errorf("unexpected name %s", ch.Name())
	}

	alert := &database.AlertRecord{AlertKey: "visit:1:late", Title: "Late visit"}
	if err := ch.Send(context.Background(), alert, nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}
}
