package daemon

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"ripwatch/internal/disc"
	"ripwatch/internal/logging"
	"ripwatch/internal/testsupport"
)

func discEvent(action netlink.KObjAction, env map[string]string) netlink.UEvent {
	merged := map[string]string{
		"SUBSYSTEM":      "block",
		"ID_CDROM":       "1",
		"ID_CDROM_MEDIA": "1",
	}
	for k, v := range env {
		merged[k] = v
	}
	return netlink.UEvent{Action: action, Env: merged}
}

func TestDiscInsertMatcher(t *testing.T) {
	matcher := discInsertMatcher()

	if !matcher.Evaluate(discEvent(netlink.CHANGE, nil)) {
		t.Error("expected CHANGE with media env to match")
	}
	if !matcher.Evaluate(discEvent(netlink.ADD, nil)) {
		t.Error("expected ADD with media env to match")
	}
	if matcher.Evaluate(discEvent(netlink.REMOVE, nil)) {
		t.Error("expected REMOVE to be ignored")
	}

	noMedia := netlink.UEvent{
		Action: netlink.CHANGE,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"ID_CDROM":  "1",
		},
	}
	if matcher.Evaluate(noMedia) {
		t.Error("expected event without ID_CDROM_MEDIA to be ignored")
	}
}

func TestDeviceNameOf(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "devname preferred",
			env:  map[string]string{"DEVNAME": "/dev/sr0", "DEVPATH": "/devices/x/block/sr1"},
			want: "/dev/sr0",
		},
		{
			name: "devpath fallback",
			env:  map[string]string{"DEVPATH": "/devices/pci0000:00/0000:00:1f.2/ata1/host0/target0:0:0/0:0:0:0/block/sr0"},
			want: "/dev/sr0",
		},
		{
			name: "no identifiers",
			env:  map[string]string{},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := deviceNameOf(netlink.UEvent{Action: netlink.CHANGE, Env: tc.env})
			if got != tc.want {
				t.Fatalf("deviceNameOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNetlinkKicksMatchingMonitor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tray := &trayState{val: disc.StatusNoDisc}
	m := newDeviceMonitor(cfg, "/dev/sr0", &stubRunner{}, tray.get, logging.NewNop())
	nm := newNetlinkMonitor(logging.NewNop(), []*deviceMonitor{m})

	nm.handleEvent(discEvent(netlink.CHANGE, map[string]string{"DEVNAME": "/dev/sr9"}))
	if len(m.kick) != 0 {
		t.Fatal("event for another device must not wake the monitor")
	}

	nm.handleEvent(discEvent(netlink.CHANGE, map[string]string{"DEVNAME": "/dev/sr0"}))
	if len(m.kick) != 1 {
		t.Fatal("expected a kick for the monitored device")
	}

	// A second event while the first kick is pending coalesces.
	nm.handleEvent(discEvent(netlink.CHANGE, map[string]string{"DEVNAME": "/dev/sr0"}))
	if len(m.kick) != 1 {
		t.Fatalf("expected coalesced kicks, found %d pending", len(m.kick))
	}
}

func TestNetlinkStopSafety(t *testing.T) {
	ctx := context.Background()

	var nilMonitor *netlinkMonitor
	nilMonitor.Start(ctx)
	nilMonitor.Stop()

	nm := newNetlinkMonitor(logging.NewNop(), nil)
	nm.Start(ctx)
	nm.Stop()
	nm.Stop()
}
