package disc

import (
	"context"
	"os/exec"
	"strings"

	"ripwatch/internal/services"
)

// Ejector opens the drive tray once a session reaches a terminal
// state. Callers treat failures as advisory.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

// NewEjector returns an Ejector backed by the system eject binary.
func NewEjector() Ejector {
	return commandEjector{}
}

type commandEjector struct{}

func (commandEjector) Eject(ctx context.Context, device string) error {
	var args []string
	if device != "" {
		args = append(args, device)
	}
	out, err := exec.CommandContext(ctx, "eject", args...).CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = "eject failed"
		}
		return services.Wrap(services.ErrExternalTool, "disc", "eject", detail, err)
	}
	return nil
}
