package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ripwatch/internal/logging"
)

func writeAgedFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("log"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestCleanupOldLogsPrunesExpired(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "ripwatch-old.log")
	fresh := filepath.Join(dir, "ripwatch-fresh.log")
	keep := filepath.Join(dir, "ripwatch-current.log")
	writeAgedFile(t, old, 40*24*time.Hour)
	writeAgedFile(t, fresh, 24*time.Hour)
	writeAgedFile(t, keep, 40*24*time.Hour)

	logging.CleanupOldLogs(logging.NewNop(), 30, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "ripwatch-*.log",
		Exclude: []string{keep},
	})

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected expired log to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh log to remain: %v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("expected excluded log to remain: %v", err)
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "ripwatch-old.log")
	writeAgedFile(t, old, 400*24*time.Hour)

	logging.CleanupOldLogs(logging.NewNop(), 0, logging.RetentionTarget{Dir: dir, Pattern: "*.log"})

	if _, err := os.Stat(old); err != nil {
		t.Fatalf("retention disabled must not prune: %v", err)
	}
}
