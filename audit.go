package authcore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Audit event types emitted by the engine.
const (
	AuditRegister         = "register"
	AuditRegisterConflict = "register_conflict"
	AuditLogin            = "login"
	AuditLoginFailure     = "login_failure"
	AuditLoginRateLimited = "login_rate_limited"
	AuditRefresh          = "refresh"
	AuditRefreshRejected  = "refresh_rejected"
	AuditLogout           = "logout"
)

// AuditEvent is one auth-protocol observation. Identity is the normalized
// login identity (email); PrincipalID is zero when the event never reached
// a known principal.
type AuditEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	Identity    string    `json:"identity,omitempty"`
	PrincipalID int64     `json:"principal_id,omitempty"`
	IP          string    `json:"ip,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// AuditSink consumes events from the dispatcher goroutine. Emit must not
// block indefinitely; slow sinks cause drops when DropIfFull is set.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

// Emit implements [AuditSink].
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered channel for the host to drain.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink creates a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan AuditEvent, buffer)}
}

// Emit implements [AuditSink]; it blocks until the event is queued or ctx
// is done.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the delivery channel.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to an io.Writer.
type JSONWriterSink struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewJSONWriterSink creates a JSONWriterSink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

// Emit implements [AuditSink]. Marshal or write failures are dropped;
// audit must never break the auth path.
func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
