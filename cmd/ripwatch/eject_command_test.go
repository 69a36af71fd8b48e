package main

import (
	"testing"
)

func TestEjectThroughDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"eject"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("eject: %v", err)
	}
	requireContains(t, out, "ejected")
	requireContains(t, out, env.cfg.Devices.Primary)
}

func TestEjectDirectWhenDaemonDown(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"eject"}, env.socketPath+".down", env.configPath)
	if err != nil {
		t.Fatalf("eject without daemon: %v", err)
	}
	requireContains(t, out, "ejected "+env.cfg.Devices.Primary)
}
