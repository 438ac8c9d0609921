package auth

import (
	"crypto/hmac"
	"crypto/sha256"
)

// LegacyGate guards submissions to legacy-rubric rounds with an officer
// passphrase.
type LegacyGate struct {
	digest []byte
}

// NewLegacyGate returns a gate for passphrase. An empty passphrase closes
// the gate.
func NewLegacyGate(passphrase string) *LegacyGate {
	if passphrase == "" {
		return &LegacyGate{}
	}
	return &LegacyGate{digest: digest(passphrase)}
}

func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

// Check compares the presented passphrase in constant time.
func (g *LegacyGate) Check(presented string) error {
	if g == nil || g.digest == nil || presented == "" {
		return ErrLegacyGate
	}
	if !hmac.Equal(digest(presented), g.digest) {
		return ErrLegacyGate
	}
	return nil
}
