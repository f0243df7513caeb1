package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Toast kinds.
const (
	KindError   = "error"
	KindSuccess = "success"
	KindInfo    = "info"
)

// Message describes a toast shown to the user.
type Message struct {
	Kind  string    `json:"kind"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	At    time.Time `json:"at"`
}

// Error builds an error toast.
func Error(body string) Message { return Message{Kind: KindError, Title: "Error", Body: body} }

// Success builds a success toast.
func Success(body string) Message { return Message{Kind: KindSuccess, Title: "Success", Body: body} }

// Notifier delivers toasts to whatever surface renders them.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes toasts to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("toast", "kind", message.Kind, "title", message.Title, "body", message.Body)
	return nil
}

// WriterNotifier prints toasts as single lines, used by the CLI on stderr.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier returns a notifier printing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Send(_ context.Context, message Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "[%s] %s\n", message.Kind, message.Body)
	return err
}

const defaultFeedSize = 50

// Feed keeps the most recent toasts in memory until a UI shell drains them.
type Feed struct {
	mu   sync.Mutex
	size int
	msgs []Message
	now  func() time.Time
}

// NewFeed returns a feed holding at most size toasts. Older toasts are
// dropped first.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &Feed{size: size, now: time.Now}
}

func (f *Feed) Send(_ context.Context, message Message) error {
	if message.At.IsZero() {
		message.At = f.now().UTC()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, message)
	if over := len(f.msgs) - f.size; over > 0 {
		f.msgs = append(f.msgs[:0:0], f.msgs[over:]...)
	}
	return nil
}

// Drain returns the pending toasts oldest first and empties the feed.
func (f *Feed) Drain() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.msgs
	f.msgs = nil
	if out == nil {
		return []Message{}
	}
	return out
}

// Multi fans a toast out to every notifier.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, message Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
