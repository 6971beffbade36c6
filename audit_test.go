package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestChannelSinkDelivery(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, nil)
	if d == nil {
		t.Fatal("enabled config produced a nil dispatcher")
	}
	d.Close()

	sink := NewChannelSink(8)
	d = newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin, PrincipalID: "p1"})
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout, PrincipalID: "p1"})
	d.Close()

	first := <-sink.Events()
	second := <-sink.Events()
	if first.EventType != AuditLogin || second.EventType != AuditLogout {
		t.Fatalf("events out of order: %q then %q", first.EventType, second.EventType)
	}

	// Emit after Close must be a silent no-op.
	d.Emit(context.Background(), AuditEvent{EventType: AuditSweep})
	select {
	case event := <-sink.Events():
		t.Fatalf("event delivered after close: %q", event.EventType)
	default:
	}
}

func TestDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled config should produce a nil dispatcher")
	}

	// All methods are nil-safe.
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})
	if n := d.Dropped(); n != 0 {
		t.Fatalf("Dropped on nil dispatcher = %d", n)
	}
	d.Close()
}

func TestDispatcherDropIfFull(t *testing.T) {
	// A sink that never returns keeps the dispatcher goroutine busy so the
	// buffer fills up.
	block := make(chan struct{})
	sink := blockingSink{release: block}

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the goroutine, second fills the buffer; everything
	// after that is dropped.
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})
	waitForDelivery(t, sink)
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})

	if n := d.Dropped(); n == 0 {
		t.Fatal("expected dropped events once the buffer was full")
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

var sinkEntered = make(chan struct{}, 16)

func (s blockingSink) Emit(_ context.Context, _ AuditEvent) {
	sinkEntered <- struct{}{}
	<-s.release
}

func waitForDelivery(t *testing.T, _ blockingSink) {
	t.Helper()
	select {
	case <-sinkEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher never delivered the first event")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		EventType:   AuditRegister,
		PrincipalID: "p1",
		Email:       "ana@x.com",
		Success:     true,
	})

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("sink output is not valid JSON: %v", err)
	}
	if decoded.EventType != AuditRegister || decoded.Email != "ana@x.com" || !decoded.Success {
		t.Fatalf("decoded event = %+v", decoded)
	}
	if buf.Bytes()[buf.Len()-1] != '\n' {
		t.Fatal("sink output not newline-terminated")
	}
}
