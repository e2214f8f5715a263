package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rafcdn/internal/config"
	"rafcdn/internal/messages"
)

const userAgent = "rafcdn/1.0"

// Service defines the notification surface exposed to upload components.
type Service interface {
	NotifyMessage(ctx context.Context, msg messages.Message) error
	NotifyBatchCompleted(ctx context.Context, completed, failed, rejected int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// HTTPDoer describes the HTTP client used to reach ntfy.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
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
	return NewNtfyService(topic, &http.Client{Timeout: timeout})
}

// NewNtfyService publishes to endpoint using client.
func NewNtfyService(endpoint string, client HTTPDoer) Service {
	return &ntfyService{endpoint: strings.TrimSpace(endpoint), client: client}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   HTTPDoer
}

// NotifyMessage publishes a tracker message. Success and error messages map
// to upload completion and failure; info messages are sent at low priority.
func (n *ntfyService) NotifyMessage(ctx context.Context, msg messages.Message) error {
	data := payload{
		title:    "rafcdn - Notice",
		message:  strings.TrimSpace(msg.Text),
		tags:     []string{"rafcdn", "info"},
		priority: "low",
	}
	switch msg.Kind {
	case messages.KindSuccess:
		data.title = "rafcdn - Upload Complete"
		data.message = "✅ " + data.message
		data.tags = []string{"rafcdn", "upload", "completed"}
		data.priority = ""
	case messages.KindError:
		data.title = "rafcdn - Upload Error"
		data.message = "❌ " + data.message
		data.tags = []string{"rafcdn", "upload", "error"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, completed, failed, rejected int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "rafcdn - Batch Complete"
	message := fmt.Sprintf("%d uploaded in %s", completed, duration)
	if failed > 0 || rejected > 0 {
		title = "rafcdn - Batch Complete (with errors)"
		message = fmt.Sprintf("%d uploaded, %d failed, %d rejected in %s", completed, failed, rejected, duration)
	}
	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"rafcdn", "batch", "completed"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "rafcdn - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"rafcdn", "test"},
		priority: "low",
	})
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

func (noopService) NotifyMessage(context.Context, messages.Message) error                     { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, int, time.Duration) error { return nil }
func (noopService) TestNotification(context.Context) error                                   { return nil }

// IsNoop reports whether svc discards everything.
func IsNoop(svc Service) bool {
	_, ok := svc.(noopService)
	return ok
}
