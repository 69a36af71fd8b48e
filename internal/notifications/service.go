package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ripwatch/internal/config"
)

const userAgent = "ripwatch/0.1.0"

// Service defines the notification surface exposed to session components.
type Service interface {
	NotifyDiscDetected(ctx context.Context, discTitle, device string) error
	NotifyRipStarted(ctx context.Context, discTitle string) error
	NotifyRipCompleted(ctx context.Context, discTitle string, fileCount int) error
	NotifyRipFailed(ctx context.Context, discTitle, reason string) error
	NotifyDuplicateDisc(ctx context.Context, discTitle string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: Endpoint(cfg.Notifications.NtfyServer, topic),
		client:   client,
	}
}

// Endpoint joins server and topic; a topic that is already a full URL is
// used verbatim. An empty server falls back to the public ntfy.sh instance.
func Endpoint(server, topic string) string {
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	server = strings.TrimRight(strings.TrimSpace(server), "/")
	if server == "" {
		server = "https://ntfy.sh"
	}
	return server + "/" + topic
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyDiscDetected(ctx context.Context, discTitle, device string) error {
	discTitle = strings.TrimSpace(discTitle)
	device = strings.TrimSpace(device)
	message := fmt.Sprintf("Disc detected: %s", discTitle)
	if device != "" {
		message = fmt.Sprintf("%s (%s)", message, device)
	}
	data := payload{
		title:   "Ripwatch - Disc Detected",
		message: message,
		tags:    []string{"ripwatch", "disc", "detected"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRipStarted(ctx context.Context, discTitle string) error {
	discTitle = strings.TrimSpace(discTitle)
	data := payload{
		title:   "Ripwatch - Rip Started",
		message: fmt.Sprintf("Started ripping: %s", discTitle),
		tags:    []string{"ripwatch", "rip", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRipCompleted(ctx context.Context, discTitle string, fileCount int) error {
	discTitle = strings.TrimSpace(discTitle)
	message := fmt.Sprintf("Rip complete: %s", discTitle)
	if fileCount > 0 {
		message = fmt.Sprintf("%s (%d file(s))", message, fileCount)
	}
	data := payload{
		title:    "Ripwatch - Rip Complete",
		message:  message,
		tags:     []string{"ripwatch", "rip", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRipFailed(ctx context.Context, discTitle, reason string) error {
	discTitle = strings.TrimSpace(discTitle)
	var builder strings.Builder
	builder.WriteString("Rip failed: ")
	builder.WriteString(discTitle)
	if reason = strings.TrimSpace(reason); reason != "" {
		builder.WriteString("\n")
		builder.WriteString(reason)
	}
	data := payload{
		title:    "Ripwatch - Rip Failed",
		message:  builder.String(),
		tags:     []string{"ripwatch", "rip", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDuplicateDisc(ctx context.Context, discTitle string) error {
	discTitle = strings.TrimSpace(discTitle)
	data := payload{
		title:   "Ripwatch - Duplicate Disc",
		message: fmt.Sprintf("Disc already ripped: %s", discTitle),
		tags:    []string{"ripwatch", "disc", "duplicate"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Ripwatch - Test",
		message:  "Notification system test",
		tags:     []string{"ripwatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDiscDetected(context.Context, string, string) error { return nil }
func (noopService) NotifyRipStarted(context.Context, string) error           { return nil }
func (noopService) NotifyRipCompleted(context.Context, string, int) error    { return nil }
func (noopService) NotifyRipFailed(context.Context, string, string) error    { return nil }
func (noopService) NotifyDuplicateDisc(context.Context, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
