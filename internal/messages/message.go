package messages

import (
	"sync"
	"time"
)

// Kind categorizes a user-visible message.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is one transient notice shown to the user.
type Message struct {
	Kind     Kind      `json:"kind"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"posted_at"`
}

func Info(text string) Message { return Message{Kind: KindInfo, Text: text} }

func Success(text string) Message { return Message{Kind: KindSuccess, Text: text} }

func Error(text string) Message { return Message{Kind: KindError, Text: text} }

// Sink receives messages. Implementations must be safe for concurrent use.
type Sink interface {
	Post(Message)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Message)

func (f SinkFunc) Post(msg Message) { f(msg) }

// Fanout posts each message to every non-nil sink in order.
type Fanout []Sink

func (f Fanout) Post(msg Message) {
	for _, sink := range f {
		if sink != nil {
			sink.Post(msg)
		}
	}
}

// Discard drops every message.
var Discard Sink = SinkFunc(func(Message) {})

// Recorder keeps every posted message; used by tests and batch summaries.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Post(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of everything posted so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// OfKind returns the texts of recorded messages with the given kind.
func (r *Recorder) OfKind(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, msg := range r.messages {
		if msg.Kind == kind {
			out = append(out, msg.Text)
		}
	}
	return out
}
