package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/avezina/identity-service/internal/domain"

	"github.com/google/uuid"
)

func TestGormSessionRepositoryRoundTrip(t *testing.T) {
	repo := NewSessionRepository(newRepositoryDBForTest(t))

	s := &domain.Session{ID: uuid.NewString(), UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindByID(s.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.UserID != "user-1" {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := repo.DeleteByID(s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := repo.DeleteByID(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on double delete, got %v", err)
	}
}

func TestGormSessionRepositoryReplace(t *testing.T) {
	repo := NewSessionRepository(newRepositoryDBForTest(t))

	old := &domain.Session{ID: "old-id", UserID: "user-1", ExpiresAt: time.Now().Add(time.Minute)}
	if err := repo.Create(old); err != nil {
		t.Fatalf("create: %v", err)
	}

	fresh := &domain.Session{ID: "new-id", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	replaced, err := repo.Replace("old-id", fresh)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !replaced {
		t.Fatal("expected replacement to win")
	}
	if _, err := repo.FindByID("old-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("old id should be gone, got %v", err)
	}
	if _, err := repo.FindByID("new-id"); err != nil {
		t.Fatalf("new id should exist: %v", err)
	}

	// losing a concurrent rotation: the old row is already gone
	replaced, err = repo.Replace("old-id", &domain.Session{ID: "other", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("replace gone: %v", err)
	}
	if replaced {
		t.Fatal("replacement of a missing session must report false")
	}
	if _, err := repo.FindByID("other"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("loser must not create its replacement row")
	}
}

func TestGormSessionRepositoryDeleteByUserAndExpired(t *testing.T) {
	repo := NewSessionRepository(newRepositoryDBForTest(t))
	now := time.Now()

	for _, s := range []*domain.Session{
		{ID: "a", UserID: "user-1", ExpiresAt: now.Add(time.Hour)},
		{ID: "b", UserID: "user-1", ExpiresAt: now.Add(time.Hour)},
		{ID: "c", UserID: "user-2", ExpiresAt: now.Add(-time.Hour)},
	} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	n, err := repo.DeleteByUserID("user-1")
	if err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deletions, got %d", n)
	}

	n, err = repo.DeleteExpired(now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired deletion, got %d", n)
	}
}
