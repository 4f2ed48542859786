package webhooksource

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jido/runtime/pkg/signal"
)

// Produce is called with the signal built from a verified,
// rate-limit-admitted webhook request. Hosts normally wire this
// straight to a Server's ProcessSignal.
type Produce func(sig signal.Signal)

// Endpoint configures one registered webhook path.
type Endpoint struct {
	Path               string
	AgentID            string
	SignalType         string
	Secret             string
	SignatureHeader    string
	SignatureAlgorithm Algorithm
}

// Source is an http.Handler that verifies, rate-limits, and converts
// inbound webhook requests into signals.
type Source struct {
	endpoints map[string]Endpoint
	limiter   *rateLimiter
	produce   Produce
	logger    zerolog.Logger
}

// New creates a Source admitting up to maxRequestsPerMin requests per
// source IP, calling produce for every signal it builds.
func New(produce Produce, maxRequestsPerMin int, logger zerolog.Logger) *Source {
	return &Source{
		endpoints: make(map[string]Endpoint),
		limiter:   newRateLimiter(maxRequestsPerMin),
		produce:   produce,
		logger:    logger,
	}
}

// Register adds an Endpoint. Re-registering a path replaces it.
func (s *Source) Register(ep Endpoint) {
	s.endpoints[ep.Path] = ep
}

// ServeHTTP implements http.Handler.
func (s *Source) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ep, ok := s.endpoints[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ip := clientIP(r)
	if !s.limiter.allow(ip) {
		w.Header().Set("Retry-After", "60")
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if ep.Secret != "" {
		sig := r.Header.Get(ep.SignatureHeader)
		if sig == "" || !verifySignature(body, sig, ep.Secret, ep.SignatureAlgorithm) {
			s.logger.Warn().Str("path", ep.Path).Str("ip", ip).Msg("webhook signature verification failed")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var payload map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			payload = map[string]interface{}{"raw": string(body)}
		}
	}

	built := signal.New(ep.AgentID, ep.SignalType).
		WithInstructions([]signal.Instruction{{Action: ep.SignalType, Params: payload}}).
		Build()

	s.produce(built)

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"accepted":true}`))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}
	return host
}
