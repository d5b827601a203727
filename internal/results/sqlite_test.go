package results

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	first := testResult("p1", "Ana", 120)
	second := testResult("p2", "Ben", 340)
	second.CompletedAt = first.CompletedAt.Add(5 * time.Second)

	if err := s.Append(first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(second); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].PersistentID != "p1" || got[1].PersistentID != "p2" {
		t.Errorf("completion order not preserved: %s, %s", got[0].PersistentID, got[1].PersistentID)
	}
	if got[0].FinalTime != 120 {
		t.Errorf("FinalTime = %v, want 120", got[0].FinalTime)
	}
	if got[0].Timers[1] == nil || *got[0].Timers[1].ElapsedSeconds != 120 {
		t.Error("timer snapshot did not round-trip")
	}
	if !got[1].CompletedAt.Equal(second.CompletedAt) {
		t.Errorf("CompletedAt = %v, want %v", got[1].CompletedAt, second.CompletedAt)
	}
}

func TestSQLiteStoreDuplicateIdentityIgnored(t *testing.T) {
	s := openTestStore(t)

	if err := s.Append(testResult("p1", "Ana", 120)); err != nil {
		t.Fatal(err)
	}
	// A second result for the same identity must not produce a second row.
	if err := s.Append(testResult("p1", "Ana", 999)); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].FinalTime != 120 {
		t.Errorf("FinalTime = %v, want the first recorded 120", got[0].FinalTime)
	}
}

func TestSQLiteStoreEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}
