package database

import (
	"chainboard/interfaces"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	storage, err := NewLocalStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	return storage
}

func TestSaveAndListPollCycles(t *testing.T) {
	storage := newTestStorage(t)

	base := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	records := []*interfaces.PollCycleRecord{
		{Symbol: "NIFTY", StartedAt: base, Success: true, Trigger: "timer", ATMStrike: 17100, PutCallRatio: 0.8, WindowSize: 21},
		{Symbol: "NIFTY", StartedAt: base.Add(5 * time.Minute), Success: false, Trigger: "timer", ErrorMessage: "option chain fetch failed with status 503"},
		{Symbol: "NIFTY", StartedAt: base.Add(10 * time.Minute), Success: true, Trigger: "manual", ATMStrike: 17150, PutCallRatio: 0.85, WindowSize: 21},
	}
	for _, r := range records {
		if err := storage.SavePollCycle(r); err != nil {
			t.Fatalf("SavePollCycle failed: %v", err)
		}
	}

	cycles, err := storage.ListRecentCycles(2)
	if err != nil {
		t.Fatalf("ListRecentCycles failed: %v", err)
	}
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(cycles))
	}
	if cycles[0].Trigger != "manual" || cycles[0].ATMStrike != 17150 {
		t.Fatalf("expected newest cycle first, got %+v", cycles[0])
	}
	if cycles[1].Success || cycles[1].ErrorMessage == "" {
		t.Fatalf("expected the failed cycle second, got %+v", cycles[1])
	}
}

func TestCycleStats(t *testing.T) {
	storage := newTestStorage(t)

	stats, err := storage.CycleStats()
	if err != nil {
		t.Fatalf("CycleStats failed: %v", err)
	}
	if stats.TotalCycles != 0 || stats.LastSuccessAt != nil {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	base := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	storage.SavePollCycle(&interfaces.PollCycleRecord{Symbol: "NIFTY", StartedAt: base, Success: true})
	storage.SavePollCycle(&interfaces.PollCycleRecord{Symbol: "NIFTY", StartedAt: base.Add(time.Minute), Success: false, ErrorMessage: "parse failed"})

	stats, err = storage.CycleStats()
	if err != nil {
		t.Fatalf("CycleStats failed: %v", err)
	}
	if stats.TotalCycles != 2 {
		t.Fatalf("expected 2 total cycles, got %d", stats.TotalCycles)
	}
	if stats.FailedCycles != 1 {
		t.Fatalf("expected 1 failed cycle, got %d", stats.FailedCycles)
	}
	if stats.LastSuccessAt == nil || !stats.LastSuccessAt.Equal(base) {
		t.Fatalf("expected last success at %v, got %v", base, stats.LastSuccessAt)
	}
}
