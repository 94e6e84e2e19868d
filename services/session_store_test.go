package services

import (
	"context"
	"testing"
)

func TestMemorySessionStoreDefaults(t *testing.T) {
	store := NewMemorySessionStore()
	s, err := store.Get(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.State != StateNormal || s.Pending != nil || s.Wizard != nil {
		t.Fatalf("unknown user must start in a clean normal session: %+v", s)
	}
}

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	in := &Session{
		State:   StatePendingConfirmation,
		Pending: &PendingRecord{Description: "白飯"},
	}
	if err := store.Set(ctx, "U1", in); err != nil {
		t.Fatalf("set: %v", err)
	}

	out, err := store.Get(ctx, "U1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.State != StatePendingConfirmation || out.Pending == nil || out.Pending.Description != "白飯" {
		t.Fatalf("round trip lost data: %+v", out)
	}

	// Mutating the returned copy must not leak into the store.
	out.State = StateNormal
	again, _ := store.Get(ctx, "U1")
	if again.State != StatePendingConfirmation {
		t.Fatalf("store handed out a shared pointer")
	}
}

func TestMemorySessionStoreClear(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	store.Set(ctx, "U1", &Session{State: StateProfileWizard})
	if err := store.Clear(ctx, "U1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	s, _ := store.Get(ctx, "U1")
	if s.State != StateNormal {
		t.Fatalf("clear must reset to normal, got %q", s.State)
	}
}
