package gatewaysource

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const maxAuthAttempts = 3

// authHandler issues a random challenge and verifies an HMAC-SHA256
// response against it, mirrored from the teacher's AuthHandler.
type authHandler struct {
	sharedSecret string
}

func newAuthHandler(sharedSecret string) *authHandler {
	return &authHandler{sharedSecret: sharedSecret}
}

func (a *authHandler) generateChallenge() (string, error) {
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}
	return hex.EncodeToString(challenge), nil
}

func (a *authHandler) verifySignature(challenge, signature string) bool {
	h := hmac.New(sha256.New, []byte(a.sharedSecret))
	h.Write([]byte(challenge))
	expected := hex.EncodeToString(h.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
