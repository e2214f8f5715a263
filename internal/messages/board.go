package messages

import (
	"sync"
	"time"
)

const (
	DefaultInfoTTL = 3 * time.Second
	DefaultTTL     = 5 * time.Second
)

// Board holds the single visible message. A new post replaces the previous
// one; a message disappears once its lifetime has elapsed.
type Board struct {
	mu      sync.Mutex
	current Message
	expires time.Time
	visible bool

	infoTTL time.Duration
	ttl     time.Duration
	now     func() time.Time
}

// BoardOption customizes a Board.
type BoardOption func(*Board)

// WithTTL overrides the info and default lifetimes.
func WithTTL(info, other time.Duration) BoardOption {
	return func(b *Board) {
		if info > 0 {
			b.infoTTL = info
		}
		if other > 0 {
			b.ttl = other
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) BoardOption {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

func NewBoard(opts ...BoardOption) *Board {
	b := &Board{infoTTL: DefaultInfoTTL, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Post replaces the current message.
func (b *Board) Post(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if msg.PostedAt.IsZero() {
		msg.PostedAt = now
	}
	lifetime := b.ttl
	if msg.Kind == KindInfo {
		lifetime = b.infoTTL
	}
	b.current = msg
	b.expires = now.Add(lifetime)
	b.visible = true
}

// Current returns the visible message, if any.
func (b *Board) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.visible {
		return Message{}, false
	}
	if !b.now().Before(b.expires) {
		b.visible = false
		b.current = Message{}
		return Message{}, false
	}
	return b.current, true
}

// Dismiss hides the current message immediately.
func (b *Board) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visible = false
	b.current = Message{}
}
