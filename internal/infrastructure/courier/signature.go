package courier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// computeSignature returns the hex HMAC-SHA256 of the payload under the
// carrier's shared webhook secret
func computeSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature compares a presented signature against the expected HMAC
// in constant time. A carrier with no configured secret accepts any
// signature; the manual fallback carrier has nothing to sign with. Carriers
// prefix the hex digest differently ("sha256=<hex>" or bare hex); both
// forms are accepted.
func verifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" {
		return true
	}
	if signature == "" {
		return false
	}
	presented := strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	expected := computeSignature(secret, payload)
	return hmac.Equal([]byte(strings.ToLower(presented)), []byte(expected))
}
