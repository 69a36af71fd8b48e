package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DiscProbe reports the current optical-disc detection snapshot.
type DiscProbe struct {
	Detected bool
	Device   string
	Label    string
	Type     string
}

// ProbeDisc inspects the loaded disc via lsblk without touching MakeMKV.
// Status UIs use it to show the label and disc type while the drive idles.
func ProbeDisc(device string) DiscProbe {
	device = strings.TrimSpace(device)
	if device == "" {
		device = "/dev/sr0"
	}
	if _, err := exec.LookPath("lsblk"); err != nil {
		return DiscProbe{Device: device}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "lsblk", "-no", "LABEL,FSTYPE", device)
	output, err := cmd.Output()
	if err != nil {
		return DiscProbe{Device: device}
	}
	text := strings.TrimSpace(string(output))
	if text == "" {
		return DiscProbe{Device: device}
	}
	fields := strings.Fields(text)
	label := "Unknown"
	if len(fields) > 0 && fields[0] != "" {
		label = fields[0]
	}
	fstype := ""
	if len(fields) > 1 {
		fstype = fields[1]
	}
	return DiscProbe{
		Detected: true,
		Device:   device,
		Label:    label,
		Type:     discTypeForFS(fstype),
	}
}

func discTypeForFS(fstype string) string {
	switch strings.ToLower(strings.TrimSpace(fstype)) {
	case "udf":
		return "Blu-ray"
	case "iso9660":
		return "DVD"
	default:
		return "Unknown"
	}
}

// DiscDetail renders a display-friendly summary for status UIs.
func (p DiscProbe) DiscDetail() string {
	if !p.Detected {
		return "No disc detected"
	}
	return fmt.Sprintf("%s disc '%s' on %s", p.Type, p.Label, p.Device)
}
