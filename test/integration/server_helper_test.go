package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avezina/identity-service/internal/config"
	"github.com/avezina/identity-service/internal/database"
	"github.com/avezina/identity-service/internal/http/handler"
	"github.com/avezina/identity-service/internal/http/router"
	"github.com/avezina/identity-service/internal/mail"
	"github.com/avezina/identity-service/internal/repository"
	"github.com/avezina/identity-service/internal/security"
	"github.com/avezina/identity-service/internal/service"
)

// captureSender records every outbound message so tests can fish the raw
// token out of the "mailbox".
type captureSender struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (c *captureSender) Send(_ context.Context, msg mail.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return "captured", nil
}

func (c *captureSender) lastToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		t.Fatal("no mail captured")
	}
	return c.messages[len(c.messages)-1].Token
}

type testServerOptions struct {
	redisSessionRepo bool
}

// newIdentityTestServer assembles the full HTTP stack on sqlite (and
// optionally a miniredis session store) behind an httptest server with a
// cookie-keeping client.
func newIdentityTestServer(t *testing.T, opts testServerOptions) (string, *http.Client, *captureSender) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		BaseURL:    "http://127.0.0.1",
		SessionTTL: time.Hour,
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewVerificationTokenRepository(db)
	var sessionRepo repository.SessionRepository = repository.NewSessionRepository(db)
	if opts.redisSessionRepo {
		mini := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		sessionRepo = repository.NewRedisSessionRepository(client)
	}

	sender := &captureSender{}
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokenSvc := service.NewTokenService(userRepo, tokenRepo, time.Hour)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, cfg.SessionTTL)
	authSvc := service.NewAuthService(cfg, userRepo, tokenSvc, sessionSvc, sender, discard)

	cookieMgr := security.NewCookieManager("", false, "lax")
	h := router.NewRouter(router.Dependencies{
		AuthHandler:    handler.NewAuthHandler(authSvc, cookieMgr),
		UserHandler:    handler.NewUserHandler(),
		SessionService: sessionSvc,
		CookieManager:  cookieMgr,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return srv.URL, &http.Client{Jar: jar}, sender
}

// doJSON posts (or gets) a JSON body and decodes the response into out when
// non-nil, returning the raw response for status and cookie assertions.
func doJSON(t *testing.T, client *http.Client, method, url string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorCode(t *testing.T, client *http.Client, method, url string, body any) (int, string) {
	t.Helper()
	var env errorEnvelope
	resp := doJSON(t, client, method, url, body, &env)
	return resp.StatusCode, env.Error.Code
}
