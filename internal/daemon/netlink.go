package daemon

import (
	"context"
	"strings"
	"sync"

	"log/slog"

	"github.com/pilebones/go-udev/netlink"

	"ripwatch/internal/logging"
)

// netlinkMonitor listens for udev media-change events and wakes the polling
// monitor of the affected device. Polling stays the source of truth; this
// only removes the up-to-one-interval detection delay.
type netlinkMonitor struct {
	logger  *slog.Logger
	targets map[string]*deviceMonitor

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newNetlinkMonitor(logger *slog.Logger, monitors []*deviceMonitor) *netlinkMonitor {
	targets := make(map[string]*deviceMonitor, len(monitors))
	for _, m := range monitors {
		targets[m.device] = m
	}
	return &netlinkMonitor{
		logger:  logging.NewComponentLogger(logger, "netlink"),
		targets: targets,
	}
}

// Start begins listening for udev events. A connection failure is logged
// and swallowed: polling covers detection without the fast path.
func (m *netlinkMonitor) Start(ctx context.Context) {
	if m == nil || len(m.targets) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("netlink unavailable, relying on polling alone",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon may open netlink sockets"),
			logging.String(logging.FieldImpact, "disc detection delayed up to one poll interval"),
		)
		return
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.loop(ctx, quit)
	m.logger.Info("netlink listener started", logging.Int("device_count", len(m.targets)))
}

// Stop shuts the listener down.
func (m *netlinkMonitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.logger.Info("netlink listener stopped")
}

func (m *netlinkMonitor) loop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, discInsertMatcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink read error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_read_failed"),
			)
		}
	}
}

// discInsertMatcher selects block-device change/add events that carry
// optical media, the same signature udev rules use.
func discInsertMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})
	return rules
}

func (m *netlinkMonitor) handleEvent(uevent netlink.UEvent) {
	device := deviceNameOf(uevent)
	if device == "" {
		return
	}
	target, ok := m.targets[device]
	if !ok {
		m.logger.Debug("ignoring event for unmonitored device", logging.String(logging.FieldDevice, device))
		return
	}
	m.logger.Info("media change reported by udev",
		logging.String(logging.FieldDevice, device),
		logging.String("action", string(uevent.Action)),
	)
	target.Kick()
}

// deviceNameOf extracts the /dev path from a uevent, deriving it from
// DEVPATH when DEVNAME is absent.
func deviceNameOf(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
