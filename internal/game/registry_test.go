package game

import (
	"testing"
	"time"
)

func TestGetOrCreateNewSession(t *testing.T) {
	r := NewRegistry()

	s := r.GetOrCreate("p1", "Ana", "c1")
	if s.CurrentStage != 1 {
		t.Errorf("CurrentStage = %d, want 1", s.CurrentStage)
	}
	if s.Status != StatusActive {
		t.Errorf("Status = %v, want active", s.Status)
	}
	if len(s.Timers) != 0 {
		t.Errorf("new session has %d timers, want 0", len(s.Timers))
	}
	if r.Get("p1") != s {
		t.Error("Get did not return the created session")
	}
}

func TestGetOrCreateReattachesByPersistentID(t *testing.T) {
	r := NewRegistry()
	e := NewEngine()

	s := r.GetOrCreate("p1", "Ana", "c1")
	e.StartStage(s, 1, t0)
	e.SubmitAnswer(s, 1, "go", "go", t0.Add(30*time.Second))

	if got := r.MarkDisconnected("c1"); got != s {
		t.Fatalf("MarkDisconnected returned %v, want the session", got)
	}
	if s.Status != StatusDisconnected {
		t.Fatalf("Status = %v, want disconnected", s.Status)
	}

	// Reattach on a brand-new connection: stage, timers and name survive.
	again := r.GetOrCreate("p1", "", "c2")
	if again != s {
		t.Fatal("reattach created a new session instead of reusing the old one")
	}
	if again.Status != StatusActive {
		t.Errorf("Status = %v, want active after reattach", again.Status)
	}
	if again.ConnectionID != "c2" {
		t.Errorf("ConnectionID = %q, want c2", again.ConnectionID)
	}
	if again.CurrentStage != 2 {
		t.Errorf("CurrentStage = %d, want 2 (untouched)", again.CurrentStage)
	}
	if again.Name != "Ana" {
		t.Errorf("Name = %q, want Ana (kept when rejoin omits it)", again.Name)
	}
	if again.Timers[1] == nil || *again.Timers[1].ElapsedSeconds != 30 {
		t.Error("timers lost across reattach")
	}
}

func TestMarkDisconnectedUnknownConnectionIsNoop(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("p1", "Ana", "c1")

	if got := r.MarkDisconnected("never-seen"); got != nil {
		t.Fatalf("MarkDisconnected = %v, want nil", got)
	}
	if r.Get("p1").Status != StatusActive {
		t.Error("stray disconnect changed an unrelated session")
	}
}

func TestJoinOnBoundConnectionUnbindsStaleSession(t *testing.T) {
	r := NewRegistry()

	old := r.GetOrCreate("p1", "Ana", "c1")
	// Same transport connection joins as a different identity; the old
	// binding must be released, not duplicated.
	fresh := r.GetOrCreate("p2", "Ben", "c1")

	if old.ConnectionID == fresh.ConnectionID {
		t.Fatal("two sessions share one connection id")
	}
	if old.Status != StatusDisconnected {
		t.Errorf("stale session status = %v, want disconnected", old.Status)
	}
	if fresh.ConnectionID != "c1" {
		t.Errorf("new session ConnectionID = %q, want c1", fresh.ConnectionID)
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("p1", "Ana", "c1")

	r.Remove("p1")
	if r.Get("p1") != nil {
		t.Error("session still present after Remove")
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}
