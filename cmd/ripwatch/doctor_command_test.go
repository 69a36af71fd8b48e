package main

import (
	"strings"
	"testing"
)

func TestDoctorReportsMissingDrive(t *testing.T) {
	env := setupCLITestEnv(t)

	// Binaries are stubbed but the drive node does not exist, so doctor
	// should list every check and exit non-zero.
	out, _, err := runCLI(t, []string{"doctor"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail with a missing drive node")
	}
	if !strings.Contains(err.Error(), "checks failed") {
		t.Fatalf("unexpected doctor error: %v", err)
	}
	requireContains(t, out, "MakeMKV")
	requireContains(t, out, "Optical drive")
	requireContains(t, out, "FAIL")
	requireContains(t, out, "No disc detected")
}
