package notifier

import (
	"context"
	"errors"
	"testing"
)

type mockNotifier struct {
	name       string
	events     []Event
	shouldFail bool
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Init(cfg Config) error { return nil }

func (m *mockNotifier) Notify(_ context.Context, ev Event) error {
	m.events = append(m.events, ev)
	if m.shouldFail {
		return errors.New("notify failed")
	}
	return nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "test"}
	if err := r.Register(mock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duplicate registration should fail
	if err := r.Register(mock); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockNotifier{name: "test"})

	n, err := r.Get("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name() != "test" {
		t.Errorf("expected 'test', got %s", n.Name())
	}

	if _, err := r.Get("nonexistent"); err == nil {
		t.Error("expected error for nonexistent notifier")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockNotifier{name: "webhook"})
	r.Register(&mockNotifier{name: "telegram"})

	names := r.Names()
	if len(names) != 2 || names[0] != "telegram" || names[1] != "webhook" {
		t.Errorf("Names() = %v, want [telegram webhook]", names)
	}
}

func TestRegistry_NotifyAll(t *testing.T) {
	r := NewRegistry()
	ok := &mockNotifier{name: "ok"}
	bad := &mockNotifier{name: "bad", shouldFail: true}
	r.Register(ok)
	r.Register(bad)

	errs := r.NotifyAll(context.Background(), Event{RunID: "run-1", Status: "ok"})

	if len(errs) != 1 || errs["bad"] == nil {
		t.Errorf("expected a single failure from 'bad', got %v", errs)
	}
	if len(ok.events) != 1 || ok.events[0].RunID != "run-1" {
		t.Errorf("expected event delivered to 'ok', got %v", ok.events)
	}
	if len(bad.events) != 1 {
		t.Error("failing notifier should still have been called")
	}
}

func TestEvent_Failed(t *testing.T) {
	if (Event{}).Failed() {
		t.Error("event without error should not be failed")
	}
	if !(Event{Error: "boom"}).Failed() {
		t.Error("event with error should be failed")
	}
}
