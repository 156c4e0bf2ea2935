package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/avezina/identity-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisRepoForTest(t *testing.T) (SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionRepository(client), mr
}

func TestRedisSessionRepositoryRoundTrip(t *testing.T) {
	repo, _ := newRedisRepoForTest(t)

	s := &domain.Session{ID: "sess-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindByID("sess-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.UserID != "user-1" || got.ID != "sess-1" {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := repo.DeleteByID("sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID("sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRedisSessionRepositoryRejectsExpiredCreate(t *testing.T) {
	repo, _ := newRedisRepoForTest(t)

	s := &domain.Session{ID: "sess-old", UserID: "user-1", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := repo.Create(s); err == nil {
		t.Fatal("expected error creating an already-expired session")
	}
}

func TestRedisSessionRepositoryExpiryIsNative(t *testing.T) {
	repo, mr := newRedisRepoForTest(t)

	short := &domain.Session{ID: "sess-short", UserID: "user-1", ExpiresAt: time.Now().Add(time.Minute)}
	long := &domain.Session{ID: "sess-long", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(short); err != nil {
		t.Fatalf("create short: %v", err)
	}
	if err := repo.Create(long); err != nil {
		t.Fatalf("create long: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := repo.FindByID("sess-short"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session to expire via redis TTL, got %v", err)
	}
	if _, err := repo.FindByID("sess-long"); err != nil {
		t.Fatalf("long session should still be live: %v", err)
	}

	// the index entry is now dangling; DeleteExpired prunes it
	n, err := repo.DeleteExpired(time.Now())
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned index entry, got %d", n)
	}
}

func TestRedisSessionRepositoryReplace(t *testing.T) {
	repo, _ := newRedisRepoForTest(t)

	old := &domain.Session{ID: "old", UserID: "user-1", ExpiresAt: time.Now().Add(time.Minute)}
	if err := repo.Create(old); err != nil {
		t.Fatalf("create: %v", err)
	}

	fresh := &domain.Session{ID: "fresh", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	replaced, err := repo.Replace("old", fresh)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !replaced {
		t.Fatal("expected replacement to win")
	}
	if _, err := repo.FindByID("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("old session should be gone")
	}
	if _, err := repo.FindByID("fresh"); err != nil {
		t.Fatalf("fresh session should exist: %v", err)
	}

	replaced, err = repo.Replace("old", &domain.Session{ID: "loser", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("replace gone: %v", err)
	}
	if replaced {
		t.Fatal("second rotation of the same id must lose")
	}
}

func TestRedisSessionRepositoryDeleteByUserID(t *testing.T) {
	repo, _ := newRedisRepoForTest(t)

	for _, id := range []string{"s1", "s2"} {
		if err := repo.Create(&domain.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := repo.Create(&domain.Session{ID: "s3", UserID: "user-2", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("create s3: %v", err)
	}

	n, err := repo.DeleteByUserID("user-1")
	if err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deletions, got %d", n)
	}
	if _, err := repo.FindByID("s3"); err != nil {
		t.Fatalf("other user's session should survive: %v", err)
	}
}
