package main

import "testing"

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "unused.sock", "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "ripwatch dev")
}

func TestRootHelpListsCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	for _, name := range []string{"start", "stop", "status", "history", "eject", "logs", "doctor", "config", "version"} {
		requireContains(t, out, name)
	}
}
