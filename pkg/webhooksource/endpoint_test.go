package webhooksource

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jido/runtime/pkg/signal"
)

type collector struct {
	mu   sync.Mutex
	sigs []signal.Signal
}

func (c *collector) produce(sig signal.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sigs = append(c.sigs, sig)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sigs)
}

func TestSource_UnsignedEndpointAcceptsRequest(t *testing.T) {
	c := &collector{}
	src := New(c.produce, 100, zerolog.Nop())
	src.Register(Endpoint{Path: "/hooks/github", AgentID: "agent-1", SignalType: "cmd.webhook.github"})

	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewBufferString(`{"action":"opened"}`))
	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, c.count())
}

func TestSource_SignedEndpointRejectsBadSignature(t *testing.T) {
	c := &collector{}
	src := New(c.produce, 100, zerolog.Nop())
	src.Register(Endpoint{
		Path: "/hooks/secure", AgentID: "agent-1", SignalType: "cmd.webhook.secure",
		Secret: "s3cr3t", SignatureHeader: "X-Signature", SignatureAlgorithm: AlgorithmSHA256,
	})

	req := httptest.NewRequest(http.MethodPost, "/hooks/secure", bytes.NewBufferString(`{}`))
	req.Header.Set("X-Signature", "sha256=deadbeef")
	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, c.count())
}

func TestSource_SignedEndpointAcceptsValidSignature(t *testing.T) {
	c := &collector{}
	src := New(c.produce, 100, zerolog.Nop())
	src.Register(Endpoint{
		Path: "/hooks/secure", AgentID: "agent-1", SignalType: "cmd.webhook.secure",
		Secret: "s3cr3t", SignatureHeader: "X-Signature", SignatureAlgorithm: AlgorithmSHA256,
	})

	body := []byte(`{"ok":true}`)
	sig := computeHMACSHA256(body, "s3cr3t")

	req := httptest.NewRequest(http.MethodPost, "/hooks/secure", bytes.NewBuffer(body))
	req.Header.Set("X-Signature", sig)
	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, c.count())
}

func TestSource_UnknownPathReturns404(t *testing.T) {
	src := New(func(signal.Signal) {}, 100, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/nope", nil)
	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSource_RateLimitExceededReturns429(t *testing.T) {
	c := &collector{}
	src := New(c.produce, 1, zerolog.Nop())
	src.Register(Endpoint{Path: "/hooks/limited", AgentID: "agent-1", SignalType: "cmd.webhook.limited"})

	req := httptest.NewRequest(http.MethodPost, "/hooks/limited", bytes.NewBufferString(`{}`))
	req.RemoteAddr = "203.0.113.1:5555"
	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/hooks/limited", bytes.NewBufferString(`{}`))
	req2.RemoteAddr = "203.0.113.1:5555"
	rec2 := httptest.NewRecorder()
	src.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}
