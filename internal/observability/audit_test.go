package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuditLogger(t *testing.T) *AuditLogger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return &AuditLogger{file: f}
}

func readAuditLines(t *testing.T, logger *AuditLogger) []AuditEvent {
	t.Helper()
	raw, err := os.ReadFile(logger.file.Name())
	require.NoError(t, err)

	var events []AuditEvent
	dec := json.NewDecoder(bytes.NewReader(raw))
	for dec.More() {
		var e AuditEvent
		require.NoError(t, dec.Decode(&e))
		events = append(events, e)
	}
	return events
}

func TestAuditLoggerRecordAppendsEvent(t *testing.T) {
	logger := newTestAuditLogger(t)

	err := logger.Record(context.Background(), AuditEvent{
		Type:   "action",
		Actor:  "agent-1",
		Action: "system.ping",
		Status: "success",
	})
	require.NoError(t, err)

	events := readAuditLines(t, logger)
	require.Len(t, events, 1)
	assert.Equal(t, "action", events[0].Type)
	assert.Equal(t, "system.ping", events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestAuditLoggerRecordOnNilLoggerIsNoop(t *testing.T) {
	var logger *AuditLogger
	assert.NoError(t, logger.Record(context.Background(), AuditEvent{Type: "action"}))
	assert.NoError(t, logger.Close())
}

func TestRecordActionAuditNoopWithoutSingleton(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordActionAudit(context.Background(), "system.ping", "agent-1", "success", nil)
	})
}
