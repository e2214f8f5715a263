package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rafcdn/internal/logging"
	"rafcdn/internal/messages"
)

// Toggles selects which message kinds are pushed. Info messages never are.
type Toggles struct {
	Success bool
	Error   bool
}

// MessageSink forwards tracker messages to a Service in the background.
// Call Wait before exiting so pending pushes are delivered.
type MessageSink struct {
	svc     Service
	toggles Toggles
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewMessageSink wraps svc. A zero timeout means 10s per push.
func NewMessageSink(svc Service, toggles Toggles, timeout time.Duration, logger *slog.Logger) *MessageSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MessageSink{
		svc:     svc,
		toggles: toggles,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "notifications"),
	}
}

func (s *MessageSink) Post(msg messages.Message) {
	if s == nil || s.svc == nil || IsNoop(s.svc) || !s.enabled(msg.Kind) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.svc.NotifyMessage(ctx, msg); err != nil {
			logging.WarnWithContext(s.logger, "notification failed", "ntfy_send_failed",
				"check notifications.ntfy_topic and network access",
				logging.String("kind", string(msg.Kind)),
				logging.Error(err),
			)
		}
	}()
}

func (s *MessageSink) enabled(kind messages.Kind) bool {
	switch kind {
	case messages.KindSuccess:
		return s.toggles.Success
	case messages.KindError:
		return s.toggles.Error
	default:
		return false
	}
}

// Wait blocks until every pending push has finished.
func (s *MessageSink) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}
