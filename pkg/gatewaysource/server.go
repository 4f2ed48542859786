package gatewaysource

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jido/runtime/pkg/signal"
)

// Produce is called with every signal built from an authenticated
// client's request. Hosts normally wire this straight to a Server's
// ProcessSignal (possibly routed to a specific child via node.Tree).
type Produce func(sig signal.Signal)

// request is the JSON-RPC-shaped message a connected client sends
// once authenticated.
type request struct {
	AgentID    string                 `json:"agent_id"`
	SignalType string                 `json:"signal_type"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

type authChallenge struct {
	Event     string `json:"event"`
	Challenge string `json:"challenge"`
}

type authResponse struct {
	Signature string `json:"signature"`
}

type authResult struct {
	Event   string `json:"event"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Server upgrades HTTP connections to WebSocket, runs the
// challenge-response handshake, and converts each authenticated
// client's requests into signals.
type Server struct {
	auth     *authHandler
	produce  Produce
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// New creates a Server. sharedSecret is the HMAC key every client must
// prove possession of to authenticate.
func New(sharedSecret string, produce Produce, logger zerolog.Logger) *Server {
	return &Server{
		auth:    newAuthHandler(sharedSecret),
		produce: produce,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP implements http.Handler, upgrading the connection and
// running its lifetime on its own goroutine.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	go s.handle(conn)
}

func (s *Server) handle(conn *websocket.Conn) {
	defer conn.Close()

	challenge, err := s.auth.generateChallenge()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate auth challenge")
		return
	}
	if err := conn.WriteJSON(authChallenge{Event: "auth.challenge", Challenge: challenge}); err != nil {
		return
	}

	if !s.authenticate(conn, challenge) {
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("gateway connection closed unexpectedly")
			}
			return
		}
		if req.AgentID == "" || req.SignalType == "" {
			continue
		}

		sig := signal.New(req.AgentID, req.SignalType).
			WithInstructions([]signal.Instruction{{Action: req.SignalType, Params: req.Params}}).
			Build()
		s.produce(sig)
	}
}

func (s *Server) authenticate(conn *websocket.Conn, challenge string) bool {
	for attempt := 0; attempt < maxAuthAttempts; attempt++ {
		var resp authResponse
		if err := conn.ReadJSON(&resp); err != nil {
			return false
		}
		if s.auth.verifySignature(challenge, resp.Signature) {
			_ = conn.WriteJSON(authResult{Event: "auth.success", Success: true})
			return true
		}
		_ = conn.WriteJSON(authResult{Event: "auth.failure", Success: false, Message: "invalid signature"})
	}
	return false
}
