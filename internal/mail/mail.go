// Package mail delivers verification and password-reset messages. The core
// services treat delivery as best effort: a failed send surfaces as a
// DeliveryError but never rolls back the state that prompted it.
package mail

import (
	"context"
	"fmt"

	"github.com/avezina/identity-service/internal/domain"
)

// Message is a fully resolved outbound mail. TokenURL carries the raw token;
// everything persisted server-side is a digest, so the mail is the only place
// the raw value ever appears.
type Message struct {
	To           string
	Subject      string
	BodyKind     domain.TokenKind
	Token        string
	TokenURL     string
	ExpiresLabel string
}

// Sender delivers a message and returns a driver-specific message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// DeliveryError wraps a transport failure so callers can branch on it with
// errors.As without inspecting driver internals.
type DeliveryError struct {
	Driver string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mail delivery via %s failed: %v", e.Driver, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
