package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// verification tokens carry 256 bits of entropy
const verificationTokenBytes = 32

// NewVerificationToken returns a hex-encoded random token suitable for use
// as a single guess-proof credential in a link or form field.
func NewVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
