package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecusim/internal/history"
	"ecusim/internal/testsupport"
)

func TestOpenCreatesDatabaseUnderStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if got, want := store.Path(), filepath.Join(cfg.Paths.StateDir, "history.db"); got != want {
		t.Fatalf("expected db at %q, got %q", want, got)
	}
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty history, got %d runs", count)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	run := testsupport.RecordRun(t, store, time.Now(), 10)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	got, err := reopened.Get(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Rows != 10 {
		t.Fatalf("expected persisted run, got %#v", got)
	}
}

func TestRecordRoundTripsFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	run := &history.Run{
		ID:                     "5a9d7c1e-0000-4000-8000-000000000001",
		Status:                 history.StatusFailed,
		StartedAt:              started,
		FinishedAt:             started.Add(2 * time.Second),
		InputPath:              "/data/in.csv",
		OutputPath:             "/data/out.csv",
		CalibrationPath:        "/etc/ecu/calibration.txt",
		CalibrationFound:       true,
		CalibrationCorrections: 1,
		Rows:                   42,
		RowsOn:                 40,
		PeakSpeed:              1900,
		FinalSpeed:             0,
		LimpLatched:            true,
		RevCutActivations:      2,
		TracePath:              "/data/trace.csv",
		ErrorMessage:           "write output: disk full",
	}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run to be found")
	}
	if got.Status != history.StatusFailed || !got.LimpLatched || !got.CalibrationFound {
		t.Fatalf("unexpected flags: %#v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("expected started %v, got %v", started, got.StartedAt)
	}
	if got.Duration() != 2*time.Second {
		t.Fatalf("expected 2s duration, got %v", got.Duration())
	}
	if got.RevCutActivations != 2 || got.PeakSpeed != 1900 || got.RowsOn != 40 {
		t.Fatalf("unexpected counters: %#v", got)
	}
	if got.TracePath != "/data/trace.csv" || got.ErrorMessage != "write output: disk full" {
		t.Fatalf("unexpected optional fields: %#v", got)
	}
}

func TestRecordRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := store.Record(context.Background(), &history.Run{}); err == nil {
		t.Fatal("expected error when id missing")
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	oldest := testsupport.RecordRun(t, store, base, 1)
	middle := testsupport.RecordRun(t, store, base.Add(time.Minute), 2)
	newest := testsupport.RecordRun(t, store, base.Add(2*time.Minute), 3)

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != newest.ID || runs[1].ID != middle.ID || runs[2].ID != oldest.ID {
		t.Fatalf("unexpected order: %s %s %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != newest.ID {
		t.Fatalf("expected two newest runs, got %d", len(limited))
	}
}

func TestGetByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	now := time.Now()
	for _, id := range []string{"abc11111", "abc22222", "def33333"} {
		if err := store.Record(ctx, &history.Run{ID: id, StartedAt: now, FinishedAt: now}); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	got, err := store.Get(ctx, "def")
	if err != nil {
		t.Fatalf("Get by prefix failed: %v", err)
	}
	if got == nil || got.ID != "def33333" {
		t.Fatalf("expected def33333, got %#v", got)
	}
	if got.Status != history.StatusCompleted {
		t.Fatalf("expected default status completed, got %q", got.Status)
	}

	if _, err := store.Get(ctx, "abc"); !errors.Is(err, history.ErrAmbiguousID) {
		t.Fatalf("expected ErrAmbiguousID, got %v", err)
	}

	missing, err := store.Get(ctx, "zzz")
	if err != nil {
		t.Fatalf("Get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id, got %#v", missing)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var newest *history.Run
	for i := 0; i < 5; i++ {
		newest = testsupport.RecordRun(t, store, base.Add(time.Duration(i)*time.Minute), int64(i))
	}

	removed, err := store.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 runs removed, got %d", removed)
	}
	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newest.ID {
		t.Fatalf("expected newest two runs to survive, got %d", len(runs))
	}

	removed, err = store.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("Prune(0) failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected Prune(0) to be a no-op, removed %d", removed)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.RecordRun(t, store, time.Now(), 1)
	testsupport.RecordRun(t, store, time.Now(), 2)

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty history, got %d", count)
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	_, err = history.OpenPath(path)
	if !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	for _, want := range []string{"runs table", path, "version 99"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}
