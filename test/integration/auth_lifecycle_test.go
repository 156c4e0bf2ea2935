package integration

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/avezina/identity-service/internal/security"
)

func TestAuthLifecycleEndToEnd(t *testing.T) {
	baseURL, client, sender := newIdentityTestServer(t, testServerOptions{})

	register := map[string]string{
		"name":     "Lifecycle User",
		"email":    "lifecycle@example.com",
		"password": "originalpw",
	}
	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/register", register, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	credentials := map[string]string{"email": register["email"], "password": register["password"]}
	status, code := errorCode(t, client, http.MethodPost, baseURL+"/api/v1/auth/sign-in", credentials)
	if status != http.StatusForbidden || code != "EMAIL_NOT_VERIFIED" {
		t.Fatalf("unverified sign-in: expected 403 EMAIL_NOT_VERIFIED, got %d %s", status, code)
	}

	var verified struct {
		UserID string `json:"user_id"`
		Result string `json:"result"`
	}
	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/verify-token",
		map[string]string{"token": sender.lastToken(t), "type": "signup_verify"}, &verified)
	if resp.StatusCode != http.StatusOK || verified.Result != "consumed" {
		t.Fatalf("verify: expected 200 consumed, got %d %q", resp.StatusCode, verified.Result)
	}

	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/sign-in", credentials, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign-in: expected 200, got %d", resp.StatusCode)
	}
	if !jarHasSession(t, client, baseURL) {
		t.Fatal("sign-in must leave a session cookie in the jar")
	}

	resp = doJSON(t, client, http.MethodGet, baseURL+"/api/v1/me", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/sign-out", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("sign-out: expected 204, got %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodGet, baseURL+"/api/v1/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after sign-out: expected 401, got %d", resp.StatusCode)
	}
}

func TestPasswordResetEndToEnd(t *testing.T) {
	baseURL, client, sender := newIdentityTestServer(t, testServerOptions{})

	registerAndVerify(t, client, baseURL, sender, "reset@example.com", "originalpw")

	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/forgot",
		map[string]string{"email": "reset@example.com"}, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("forgot: expected 202, got %d", resp.StatusCode)
	}
	resetToken := sender.lastToken(t)

	// the reset link must be clicked before the new password is accepted
	status, code := errorCode(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/reset",
		map[string]string{"token": resetToken, "password": "replacement"})
	if status != http.StatusUnauthorized || code != "TOKEN_INVALID" {
		t.Fatalf("early reset: expected 401 TOKEN_INVALID, got %d %s", status, code)
	}

	var verified struct {
		Result string `json:"result"`
	}
	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/verify-token",
		map[string]string{"token": resetToken, "type": "reset_password"}, &verified)
	if resp.StatusCode != http.StatusOK || verified.Result != "new_password" {
		t.Fatalf("verify reset: expected 200 new_password, got %d %q", resp.StatusCode, verified.Result)
	}

	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/reset",
		map[string]string{"token": resetToken, "password": "replacement"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", resp.StatusCode)
	}

	status, code = errorCode(t, client, http.MethodPost, baseURL+"/api/v1/auth/sign-in",
		map[string]string{"email": "reset@example.com", "password": "originalpw"})
	if status != http.StatusUnauthorized || code != "INVALID_CREDENTIALS" {
		t.Fatalf("old password: expected 401 INVALID_CREDENTIALS, got %d %s", status, code)
	}
	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/sign-in",
		map[string]string{"email": "reset@example.com", "password": "replacement"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("new password sign-in: expected 200, got %d", resp.StatusCode)
	}
}

func TestLifecycleWithRedisSessionStore(t *testing.T) {
	baseURL, client, sender := newIdentityTestServer(t, testServerOptions{redisSessionRepo: true})

	registerAndVerify(t, client, baseURL, sender, "redis@example.com", "originalpw")

	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/sign-in",
		map[string]string{"email": "redis@example.com", "password": "originalpw"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign-in: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodGet, baseURL+"/api/v1/me", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/sign-out", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("sign-out: expected 204, got %d", resp.StatusCode)
	}
}

func registerAndVerify(t *testing.T, client *http.Client, baseURL string, sender *captureSender, email, password string) {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/register",
		map[string]string{"name": "Flow User", "email": email, "password": password}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", email, resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/verify-token",
		map[string]string{"token": sender.lastToken(t), "type": "signup_verify"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify %s: expected 200, got %d", email, resp.StatusCode)
	}
}

func jarHasSession(t *testing.T, client *http.Client, baseURL string) bool {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == security.SessionCookieName && c.Value != "" {
			return true
		}
	}
	return false
}
