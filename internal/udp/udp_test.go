package udp

import (
	"context"
	"testing"
	"time"

	"github.com/signalsfoundry/pinger-simulator/internal/wire"
)

func TestBroadcasterToListener_RoundTrip(t *testing.T) {
	received := make(chan wire.PositionSet, 1)
	listener, err := NewListener("127.0.0.1:0", func(ps wire.PositionSet) {
		received <- ps
	}, nil)
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- listener.Run(ctx) }()

	broadcaster, err := NewBroadcaster(listener.Addr().String())
	if err != nil {
		t.Fatalf("NewBroadcaster: %v", err)
	}
	defer broadcaster.Close()

	want := wire.PositionSet{PingerID: "pinger1", X: 12.5, Y: -3, Z: -40}
	frame, err := wire.EncodePositionSet(want)
	if err != nil {
		t.Fatalf("EncodePositionSet: %v", err)
	}
	if err := broadcaster.Send(frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if got != want {
			t.Fatalf("received %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no position frame received")
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listener did not stop after cancel")
	}
}

func TestListener_DropsMalformedFrames(t *testing.T) {
	received := make(chan wire.PositionSet, 2)
	listener, err := NewListener("127.0.0.1:0", func(ps wire.PositionSet) {
		received <- ps
	}, nil)
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()

	broadcaster, err := NewBroadcaster(listener.Addr().String())
	if err != nil {
		t.Fatalf("NewBroadcaster: %v", err)
	}
	defer broadcaster.Close()

	// Garbage first, then a valid frame. Only the valid one reaches the
	// handler, and the listener keeps running past the bad datagram.
	if err := broadcaster.Send([]byte("not a frame")); err != nil {
		t.Fatalf("Send garbage: %v", err)
	}

	want := wire.PositionSet{PingerID: "pinger2", X: 1, Y: 2, Z: 3}
	frame, err := wire.EncodePositionSet(want)
	if err != nil {
		t.Fatalf("EncodePositionSet: %v", err)
	}
	if err := broadcaster.Send(frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if got != want {
			t.Fatalf("received %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("valid frame was not delivered")
	}

	select {
	case extra := <-received:
		t.Fatalf("unexpected extra delivery: %+v", extra)
	default:
	}
}

func TestNewListener_RequiresHandler(t *testing.T) {
	if _, err := NewListener("127.0.0.1:0", nil, nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestBroadcaster_SkipsEmptyPayloads(t *testing.T) {
	broadcaster, err := NewBroadcaster("127.0.0.1:9")
	if err != nil {
		t.Fatalf("NewBroadcaster: %v", err)
	}
	defer broadcaster.Close()

	if err := broadcaster.Send(nil); err != nil {
		t.Fatalf("Send(nil) = %v, want no error", err)
	}
	if broadcaster.Dest() != "127.0.0.1:9" {
		t.Fatalf("Dest = %q", broadcaster.Dest())
	}
}
