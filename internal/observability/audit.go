package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jido/runtime/internal/tracing"
)

// AuditEvent is one append-only audit log entry.
type AuditEvent struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	Status    string                 `json:"status"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// AuditLogger appends AuditEvents to a JSONL file and mirrors them as
// OpenTelemetry span events on the current trace.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

var (
	auditOnce   sync.Once
	auditLogger *AuditLogger
)

// InitAuditLogger opens path for append and installs it as the process
// singleton returned by GetAuditLogger. Calling it more than once has
// no effect after the first call.
func InitAuditLogger(path string) error {
	var err error
	auditOnce.Do(func() {
		var f *os.File
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return
		}
		auditLogger = &AuditLogger{file: f}
	})
	return err
}

// GetAuditLogger returns the process singleton, or nil if
// InitAuditLogger was never called.
func GetAuditLogger() *AuditLogger {
	return auditLogger
}

// Record appends event to the audit log and, if ctx carries an active
// span, attaches it as a span event.
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) error {
	if a == nil {
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.TraceID == "" {
		event.TraceID = tracing.GetTraceID(ctx)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("audit."+event.Type, trace.WithAttributes(
			attribute.String("actor", event.Actor),
			attribute.String("action", event.Action),
			attribute.String("status", event.Status),
		))
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying audit log file.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	return a.file.Close()
}

// RecordActionAudit records an action execution's audit trail.
func RecordActionAudit(ctx context.Context, actionID, agentID, status string, metadata map[string]interface{}) {
	logger := GetAuditLogger()
	if logger == nil {
		return
	}
	logger.Record(ctx, AuditEvent{
		Type:     "action",
		Actor:    agentID,
		Action:   actionID,
		Status:   status,
		Metadata: metadata,
	})
}

// RecordSecurityAudit records a security-relevant event, such as a
// rejected gateway HMAC or a webhook rate-limit trip.
func RecordSecurityAudit(ctx context.Context, actor, action, status string, metadata map[string]interface{}) {
	logger := GetAuditLogger()
	if logger == nil {
		return
	}
	logger.Record(ctx, AuditEvent{
		Type:     "security",
		Actor:    actor,
		Action:   action,
		Status:   status,
		Metadata: metadata,
	})
}

// RecordConfigAudit records a configuration change, such as a
// successful `runtimectl configure` save.
func RecordConfigAudit(ctx context.Context, actor, status string, metadata map[string]interface{}) {
	logger := GetAuditLogger()
	if logger == nil {
		return
	}
	logger.Record(ctx, AuditEvent{
		Type:     "config",
		Actor:    actor,
		Action:   "configure",
		Status:   status,
		Metadata: metadata,
	})
}
