package logs

import (
	"os"
	"path/filepath"
	"time"
)

// CurrentName is the stable pointer the daemon maintains next to its
// run-stamped log files.
const CurrentName = "ripwatchd.log"

// RunPattern matches the run-stamped log files the daemon writes.
const RunPattern = "ripwatchd-*.log"

// Newest locates the log file a fresh CLI invocation should read: the
// ripwatchd.log pointer when it resolves, otherwise the most recently
// modified run log. An empty path means the directory holds no logs yet.
func Newest(dir string) (string, error) {
	current := filepath.Join(dir, CurrentName)
	if info, err := os.Stat(current); err == nil && !info.IsDir() {
		return current, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, RunPattern))
	if err != nil {
		return "", err
	}

	var newest string
	var newestMod time.Time
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = match
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}
