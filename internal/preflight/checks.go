package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"ripwatch/internal/config"
	"ripwatch/internal/notifications"
)

// Requirement defines an external binary ripwatch shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// BinaryStatus reports the availability of one requirement.
type BinaryStatus struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Result converts a binary status into a generic check result. A missing
// optional binary still passes; its detail explains what is lost.
func (s BinaryStatus) Result() Result {
	if s.Available {
		return Result{Name: s.Name, Passed: true, Detail: s.Command}
	}
	if s.Optional {
		return Result{Name: s.Name, Passed: true, Detail: s.Detail + " (optional)"}
	}
	return Result{Name: s.Name, Detail: s.Detail}
}

// Requirements lists the external binaries for the given config.
func Requirements(cfg *config.Config) []Requirement {
	makemkv := "makemkvcon"
	if cfg != nil && strings.TrimSpace(cfg.Ripping.MakemkvBinary) != "" {
		makemkv = strings.TrimSpace(cfg.Ripping.MakemkvBinary)
	}
	return []Requirement{
		{
			Name:        "MakeMKV",
			Command:     makemkv,
			Description: "Required for disc scanning and extraction",
		},
		{
			Name:        "eject",
			Command:     "eject",
			Description: "Required for tray control",
		},
		{
			Name:        "lsblk",
			Command:     "lsblk",
			Description: "Improves disc probing in status output",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements via PATH lookup.
func CheckBinaries(requirements []Requirement) []BinaryStatus {
	results := make([]BinaryStatus, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := BinaryStatus{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable,
// writable, and traversable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDeviceNode verifies the optical drive's device node exists.
func CheckDeviceNode(device string) Result {
	name := fmt.Sprintf("Optical drive %s", device)
	info, err := os.Stat(device)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: "does not exist (drive unplugged?)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("stat: %v", err)}
	}
	if info.Mode()&os.ModeDevice == 0 {
		return Result{Name: name, Detail: "is not a device node"}
	}
	return Result{Name: name, Passed: true, Detail: "device node present"}
}

// CheckNtfy verifies the ntfy endpoint answers HTTP requests. It publishes
// nothing; a HEAD against the topic endpoint proves the server is reachable.
func CheckNtfy(ctx context.Context, server, topic string) Result {
	const name = "ntfy"

	endpoint := notifications.Endpoint(server, strings.TrimSpace(topic))
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (access token required?)"}
	case resp.StatusCode >= 500:
		return Result{Name: name, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	default:
		return Result{Name: name, Passed: true, Detail: "reachable"}
	}
}
