package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"ecusim/internal/config"
	"ecusim/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordRun inserts a completed run started at the given time.
func RecordRun(t testing.TB, store *history.Store, startedAt time.Time, rows int64) *history.Run {
	t.Helper()

	run := &history.Run{
		ID:         uuid.NewString(),
		Status:     history.StatusCompleted,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(15 * time.Millisecond),
		InputPath:  "/tmp/in.csv",
		OutputPath: "/tmp/out.csv",
		Rows:       rows,
		RowsOn:     rows,
		PeakSpeed:  1200,
		FinalSpeed: 600,
	}
	if err := store.Record(context.Background(), run); err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return run
}
