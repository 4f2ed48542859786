package webhooksource

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Algorithm selects the HMAC hash used to verify a webhook signature.
type Algorithm string

const (
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA1   Algorithm = "sha1"
)

// verifySignature mirrors the teacher's verifySignature: constant-time
// compare against a freshly computed HMAC so a malformed or stolen
// signature can't be detected via timing.
func verifySignature(body []byte, signature string, secret string, algorithm Algorithm) bool {
	var expected string
	switch algorithm {
	case AlgorithmSHA256:
		expected = computeHMACSHA256(body, secret)
	case AlgorithmSHA1:
		expected = computeHMACSHA1(body, secret)
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}

func computeHMACSHA256(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(h.Sum(nil)))
}

func computeHMACSHA1(body []byte, secret string) string {
	h := hmac.New(sha1.New, []byte(secret))
	h.Write(body)
	return fmt.Sprintf("sha1=%s", hex.EncodeToString(h.Sum(nil)))
}
