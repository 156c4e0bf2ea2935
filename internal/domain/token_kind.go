package domain

// TokenKind tags a verification token with the account transition it gates.
type TokenKind string

const (
	// KindSignUpVerify proves ownership of a freshly registered email.
	KindSignUpVerify TokenKind = "signup_verify"
	// KindResetPassword proves email ownership at the start of a password reset.
	KindResetPassword TokenKind = "reset_password"
	// KindNewPassword gates the actual credential write of a password reset.
	// It is never issued directly; it only exists as the promotion of a
	// reset_password token, so the second stage reuses the same token value
	// without a second email round trip.
	KindNewPassword TokenKind = "new_password"
	// KindConsumed is the terminal state. Consumed tokens are deleted, so the
	// value never appears in storage; it only shows up as a verification
	// outcome.
	KindConsumed TokenKind = "consumed"
)

// kindTransitions is the single source of truth for what a successful
// verification does to a token of each kind.
var kindTransitions = map[TokenKind]TokenKind{
	KindSignUpVerify:  KindConsumed,
	KindNewPassword:   KindConsumed,
	KindResetPassword: KindNewPassword,
}

// Next returns the state a token of this kind moves to when verified.
// ok is false for kinds that cannot be verified (including consumed).
func (k TokenKind) Next() (next TokenKind, ok bool) {
	next, ok = kindTransitions[k]
	return next, ok
}

// Issuable reports whether the issuer may mint a token of this kind.
func (k TokenKind) Issuable() bool {
	switch k {
	case KindSignUpVerify, KindResetPassword:
		return true
	default:
		return false
	}
}

// Verifiable reports whether a stored token of this kind can be presented.
func (k TokenKind) Verifiable() bool {
	_, ok := kindTransitions[k]
	return ok
}

// MarksUserVerified reports whether consuming a token of this kind flips the
// owning user to verified. Both terminal kinds do: signup_verify by intent,
// new_password because completing a reset also proves email ownership.
func (k TokenKind) MarksUserVerified() bool {
	next, ok := kindTransitions[k]
	return ok && next == KindConsumed
}

func (k TokenKind) String() string { return string(k) }
