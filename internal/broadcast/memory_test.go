package broadcast

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func recv(t *testing.T, msgs <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-msgs:
		if !ok {
			t.Fatal("message stream closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestMemoryChannelFanOut(t *testing.T) {
	ch := NewMemoryChannel()
	defer func() { _ = ch.Close() }()

	msgs, cancel := ch.Subscribe(context.Background())
	defer cancel()

	want := Message{Key: KeyActiveSession, NewValue: "sess-1"}
	if err := ch.Publish(context.Background(), want); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := recv(t, msgs); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestMemoryChannelReplaysCurrentValues(t *testing.T) {
	ch := NewMemoryChannel()
	defer func() { _ = ch.Close() }()

	_ = ch.Publish(context.Background(), Message{Key: KeyPublicSession, NewValue: "a"})
	_ = ch.Publish(context.Background(), Message{Key: KeyPublicSession, NewValue: "b"})
	_ = ch.Publish(context.Background(), Message{Key: KeyActiveSession, NewValue: "x"})

	msgs, cancel := ch.Subscribe(context.Background())
	defer cancel()

	first := recv(t, msgs)
	second := recv(t, msgs)
	got := map[string]string{first.Key: first.NewValue, second.Key: second.NewValue}
	if got[KeyPublicSession] != "b" {
		t.Fatalf("late subscriber must see the latest value, got %q", got[KeyPublicSession])
	}
	if got[KeyActiveSession] != "x" {
		t.Fatalf("late subscriber must see every key, got %+v", got)
	}
}

func TestMemoryChannelCancelClosesStream(t *testing.T) {
	ch := NewMemoryChannel()
	defer func() { _ = ch.Close() }()

	msgs, cancel := ch.Subscribe(context.Background())
	cancel()
	select {
	case _, ok := <-msgs:
		if ok {
			t.Fatal("expected closed stream after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream never closed")
	}

	// Publishing after cancel must not panic or block.
	if err := ch.Publish(context.Background(), Message{Key: "k", NewValue: "v"}); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestMemoryChannelReplaysBeyondDefaultBuffer(t *testing.T) {
	ch := NewMemoryChannel()
	defer func() { _ = ch.Close() }()

	const keys = 40
	for i := 0; i < keys; i++ {
		msg := Message{Key: fmt.Sprintf("key-%02d", i), NewValue: fmt.Sprintf("v-%d", i)}
		if err := ch.Publish(context.Background(), msg); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	msgs, cancel := ch.Subscribe(context.Background())
	defer cancel()
	for i := 0; i < keys; i++ {
		got := recv(t, msgs)
		want := Message{Key: fmt.Sprintf("key-%02d", i), NewValue: fmt.Sprintf("v-%d", i)}
		if got != want {
			t.Fatalf("replay %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestOpenDefaultsToMemory(t *testing.T) {
	t.Setenv(EnvDriver, "")
	ch, err := Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = ch.Close() }()
	if _, ok := ch.(*MemoryChannel); !ok {
		t.Fatalf("expected memory channel, got %T", ch)
	}

	t.Setenv(EnvDriver, "carrier-pigeon")
	if _, err := Open(); err == nil {
		t.Fatal("unknown driver must be rejected")
	}
}
