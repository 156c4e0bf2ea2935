package domain

import (
	"testing"
	"time"
)

func TestTokenKindTransitions(t *testing.T) {
	cases := []struct {
		kind     TokenKind
		next     TokenKind
		ok       bool
		verifies bool
	}{
		{KindSignUpVerify, KindConsumed, true, true},
		{KindNewPassword, KindConsumed, true, true},
		{KindResetPassword, KindNewPassword, true, false},
		{KindConsumed, "", false, false},
		{TokenKind("bogus"), "", false, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			next, ok := tc.kind.Next()
			if ok != tc.ok {
				t.Fatalf("Next ok mismatch: got %v want %v", ok, tc.ok)
			}
			if ok && next != tc.next {
				t.Fatalf("Next mismatch: got %q want %q", next, tc.next)
			}
			if tc.kind.Verifiable() != tc.ok {
				t.Fatalf("Verifiable mismatch for %q", tc.kind)
			}
			if tc.kind.MarksUserVerified() != tc.verifies {
				t.Fatalf("MarksUserVerified mismatch for %q", tc.kind)
			}
		})
	}
}

func TestTokenKindIssuable(t *testing.T) {
	if !KindSignUpVerify.Issuable() || !KindResetPassword.Issuable() {
		t.Fatal("expected signup_verify and reset_password to be issuable")
	}
	if KindNewPassword.Issuable() {
		t.Fatal("new_password must only exist via promotion, never issuance")
	}
	if KindConsumed.Issuable() {
		t.Fatal("consumed is terminal")
	}
}

func TestVerificationTokenExpired(t *testing.T) {
	now := time.Now()
	tok := &VerificationToken{ExpiresAt: now.Add(time.Minute)}
	if tok.Expired(now) {
		t.Fatal("token with future expiry reported expired")
	}
	if !tok.Expired(now.Add(2 * time.Minute)) {
		t.Fatal("token past expiry reported live")
	}
}
