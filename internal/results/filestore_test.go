package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/gauntlet/internal/game"
)

func testResult(id, name string, final float64) game.FinishedResult {
	elapsed := final
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stopped := started.Add(time.Duration(final) * time.Second)
	return game.FinishedResult{
		PersistentID: id,
		Name:         name,
		FinalTime:    final,
		Timers: map[int]*game.StageTimer{
			1: {StartedAt: &started, StoppedAt: &stopped, ElapsedSeconds: &elapsed},
		},
		CompletedAt: stopped,
		Status:      game.StatusFinished,
	}
}

func TestFileStoreListAllMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "results.json"))

	got, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll on missing file: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestFileStoreAppendPreservesPriorRecords(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "results.json"))

	if err := s.Append(testResult("p1", "Ana", 120)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.Append(testResult("p2", "Ben", 340)); err != nil {
		t.Fatalf("second append: %v", err)
	}

	got, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].PersistentID != "p1" || got[1].PersistentID != "p2" {
		t.Errorf("append order not preserved: %s, %s", got[0].PersistentID, got[1].PersistentID)
	}
	if got[0].FinalTime != 120 {
		t.Errorf("FinalTime = %v, want 120", got[0].FinalTime)
	}
	if got[0].Timers[1] == nil || *got[0].Timers[1].ElapsedSeconds != 120 {
		t.Error("timer snapshot did not round-trip")
	}
}

func TestFileStoreIsHumanDiffable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	s := NewFileStore(path)

	if err := s.Append(testResult("p1", "Ana", 120)); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("result file is not indented")
	}
}

func TestFileStoreCorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)

	got, err := s.ListAll()
	if err == nil {
		t.Error("ListAll on corrupt file should surface the parse error")
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0 (degraded)", len(got))
	}

	// Appending must still work; the corrupt contents are replaced.
	if err := s.Append(testResult("p1", "Ana", 99)); err != nil {
		t.Fatalf("append over corrupt file: %v", err)
	}
	got, err = s.ListAll()
	if err != nil {
		t.Fatalf("ListAll after recovery: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d results, want 1", len(got))
	}
}

func TestFileStoreListAllRereadsDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	s := NewFileStore(path)
	if err := s.Append(testResult("p1", "Ana", 10)); err != nil {
		t.Fatal(err)
	}

	// An out-of-process edit must be visible on the next read; the store
	// is the source of truth, not a cache.
	other := NewFileStore(path)
	if err := other.Append(testResult("p2", "Ben", 20)); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d results, want 2 after external append", len(got))
	}
}
