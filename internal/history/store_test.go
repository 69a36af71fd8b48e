package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"ripwatch/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "ripwatch.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	finished := time.Now().UTC().Truncate(time.Second)
	rec := &history.Record{
		SessionID:    "11111111-2222-3333-4444-555555555555",
		Device:       "/dev/sr0",
		DiscLabel:    "PLANET_EARTH_S1_D2",
		Fingerprint:  "0A1B2C3D4E5F67890A1B2C3D4E5F6789",
		Title:        "Planet Earth S1 D2",
		Verdict:      "tv",
		EpisodeCount: 3,
		State:        history.StateCompleted,
		Attempts:     1,
		Ejected:      true,
		OutputFiles:  []string{"/library/tv/Planet Earth S1 D2/Episode 01.mkv"},
		FinishedAt:   &finished,
	}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("Create did not assign an id")
	}

	got, err := store.GetBySession(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got == nil {
		t.Fatal("record not found")
	}
	if got.DiscLabel != rec.DiscLabel || got.Verdict != "tv" || got.EpisodeCount != 3 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Ejected {
		t.Error("ejected flag lost")
	}
	if len(got.OutputFiles) != 1 || got.OutputFiles[0] != rec.OutputFiles[0] {
		t.Errorf("output files = %v", got.OutputFiles)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("finished at = %v, want %v", got.FinishedAt, finished)
	}
}

func TestGetBySessionMissingReturnsNil(t *testing.T) {
	store := openStore(t)
	got, err := store.GetBySession(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got != nil {
		t.Fatalf("got = %+v, want nil", got)
	}
}

func TestFindCompletedByFingerprint(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	const fp = "ABCDEF0123456789ABCDEF0123456789"

	failed := &history.Record{SessionID: "s1", Device: "/dev/sr0", Fingerprint: fp, State: history.StateFailed}
	if err := store.Create(ctx, failed); err != nil {
		t.Fatalf("Create failed rec: %v", err)
	}
	got, err := store.FindCompletedByFingerprint(ctx, fp)
	if err != nil {
		t.Fatalf("FindCompletedByFingerprint: %v", err)
	}
	if got != nil {
		t.Fatalf("failed rip should not count as completed, got %+v", got)
	}

	completed := &history.Record{SessionID: "s2", Device: "/dev/sr0", Fingerprint: fp, State: history.StateCompleted}
	if err := store.Create(ctx, completed); err != nil {
		t.Fatalf("Create completed rec: %v", err)
	}
	got, err = store.FindCompletedByFingerprint(ctx, fp)
	if err != nil {
		t.Fatalf("FindCompletedByFingerprint: %v", err)
	}
	if got == nil || got.SessionID != "s2" {
		t.Fatalf("got = %+v, want session s2", got)
	}

	if got, err := store.FindCompletedByFingerprint(ctx, ""); err != nil || got != nil {
		t.Errorf("blank fingerprint should find nothing, got %+v err %v", got, err)
	}
}

func TestUpdateRewritesRecord(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	rec := &history.Record{SessionID: "s1", Device: "/dev/sr0", State: "classifying"}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec.State = history.StateCompleted
	rec.Attempts = 2
	rec.Title = "Some Movie"
	now := time.Now().UTC()
	rec.FinishedAt = &now
	if err := store.Update(ctx, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.GetBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got.State != history.StateCompleted || got.Attempts != 2 || got.Title != "Some Movie" {
		t.Errorf("update lost fields: %+v", got)
	}

	missing := &history.Record{ID: 9999, SessionID: "zz", Device: "/dev/sr0", State: "failed"}
	if err := store.Update(ctx, missing); err == nil {
		t.Error("updating a missing row should error")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, id := range []string{"s1", "s2", "s3"} {
		if err := store.Create(ctx, &history.Record{SessionID: id, Device: "/dev/sr0", State: "completed"}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SessionID != "s3" || records[1].SessionID != "s2" {
		t.Errorf("order = %s, %s", records[0].SessionID, records[1].SessionID)
	}
}

func TestFailInterrupted(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, &history.Record{SessionID: "live", Device: "/dev/sr0", State: history.StateExtracting}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, &history.Record{SessionID: "done", Device: "/dev/sr0", State: history.StateCompleted}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := store.FailInterrupted(ctx, "")
	if err != nil {
		t.Fatalf("FailInterrupted: %v", err)
	}
	if n != 1 {
		t.Fatalf("marked %d sessions, want 1", n)
	}

	got, err := store.GetBySession(ctx, "live")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got.State != history.StateFailed || got.ErrorMessage != history.InterruptedReason {
		t.Errorf("interrupted session = %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("interrupted session missing finish time")
	}

	done, err := store.GetBySession(ctx, "done")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if done.State != history.StateCompleted {
		t.Errorf("completed session disturbed: %+v", done)
	}
}

func TestPruneRemovesOldTerminalSessions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	old := time.Now().Add(-60 * 24 * time.Hour).UTC()
	recent := time.Now().UTC()

	records := []*history.Record{
		{SessionID: "old-done", Device: "/dev/sr0", State: history.StateCompleted, FinishedAt: &old},
		{SessionID: "new-done", Device: "/dev/sr0", State: history.StateCompleted, FinishedAt: &recent},
		{SessionID: "old-live", Device: "/dev/sr0", State: history.StateExtracting},
	}
	for _, rec := range records {
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create %s: %v", rec.SessionID, err)
		}
	}

	n, err := store.Prune(ctx, time.Now().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if got, _ := store.GetBySession(ctx, "old-done"); got != nil {
		t.Error("old terminal session survived prune")
	}
	if got, _ := store.GetBySession(ctx, "new-done"); got == nil {
		t.Error("recent session pruned")
	}
	if got, _ := store.GetBySession(ctx, "old-live"); got == nil {
		t.Error("in-progress session pruned")
	}
}

func TestStats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	states := []string{"completed", "completed", "failed", "extracting"}
	for i, state := range states {
		rec := &history.Record{SessionID: string(rune('a' + i)), Device: "/dev/sr0", State: state}
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["completed"] != 2 || stats["failed"] != 1 || stats["extracting"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestSchemaMismatchDetected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ripwatch.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	_ = store.Close()

	// Reopening an up-to-date database succeeds.
	again, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = again.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.OpenPath(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}
