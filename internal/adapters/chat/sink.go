// Package chat delivers announcements to the server chat or a stand-in.
package chat

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tbg-racing/rankingsaver/internal/domain/style"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
	"github.com/tbg-racing/rankingsaver/pkg/metrics"
)

// Sink accepts announcements. Delivery is fire-and-forget.
type Sink interface {
	Send(ctx context.Context, message string)
}

// LogSink writes announcements to the structured log.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a sink logging through l.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.Discard()
	}
	return &LogSink{logger: l}
}

// Send logs the message with its formatting codes removed.
func (s *LogSink) Send(ctx context.Context, message string) {
	metrics.RecordChatMessage()
	s.logger.Info(ctx, "chat", logger.String("message", style.Strip(message)))
}

// WriterSink prints announcements as plain lines, e.g. to a terminal.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Send writes the message without formatting codes. Write errors are dropped.
func (s *WriterSink) Send(_ context.Context, message string) {
	metrics.RecordChatMessage()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.w, style.Strip(message))
}

// Recorder keeps every announcement in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Send records the raw message, formatting codes included.
func (r *Recorder) Send(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, or "" if none.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

// Multi fans a message out to several sinks in order.
type Multi []Sink

// Send forwards the message to every sink.
func (m Multi) Send(ctx context.Context, message string) {
	for _, s := range m {
		s.Send(ctx, message)
	}
}
