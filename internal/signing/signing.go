// Package signing issues and checks HMAC signatures for short-lived batch
// result links.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signer generates and validates HMAC based signatures.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex signature binding batchID to expiresUnix.
func (s *Signer) Sign(batchID string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "batch:%s:%d", batchID, expiresUnix)
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate checks signature and expiry. Expired links fail even when the
// signature matches.
func (s *Signer) Validate(batchID, expires, signature string, now time.Time) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if time.Unix(exp, 0).Before(now) {
		return false
	}
	expected := s.Sign(batchID, exp)
	return hmac.Equal([]byte(expected), []byte(signature))
}
