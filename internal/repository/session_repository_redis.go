package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avezina/identity-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "session:"
	userSessionPrefix = "user_sessions:"
)

// RedisSessionRepository keeps sessions in Redis with native TTLs. A per-user
// set indexes session ids so DeleteByUserID stays O(sessions of that user).
// Expired entries vanish on their own, so DeleteExpired only prunes the
// index sets.
type RedisSessionRepository struct {
	client redis.UniversalClient
}

func NewRedisSessionRepository(client redis.UniversalClient) SessionRepository {
	return &RedisSessionRepository{client: client}
}

func (r *RedisSessionRepository) Create(s *domain.Session) error {
	ctx := context.Background()
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+s.ID, payload, ttl)
	pipe.SAdd(ctx, userSessionPrefix+s.UserID, s.ID)
	pipe.ExpireGT(ctx, userSessionPrefix+s.UserID, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisSessionRepository) FindByID(id string) (*domain.Session, error) {
	ctx := context.Background()
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisSessionRepository) Replace(oldID string, fresh *domain.Session) (bool, error) {
	ctx := context.Background()
	// GETDEL makes exactly one concurrent rotation win.
	raw, err := r.client.GetDel(ctx, sessionKeyPrefix+oldID).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var old domain.Session
	if err := json.Unmarshal(raw, &old); err != nil {
		return false, err
	}
	if err := r.client.SRem(ctx, userSessionPrefix+old.UserID, oldID).Err(); err != nil {
		return false, err
	}
	if err := r.Create(fresh); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisSessionRepository) DeleteByID(id string) error {
	ctx := context.Background()
	raw, err := r.client.GetDel(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	return r.client.SRem(ctx, userSessionPrefix+s.UserID, id).Err()
}

func (r *RedisSessionRepository) DeleteByUserID(userID string) (int64, error) {
	ctx := context.Background()
	ids, err := r.client.SMembers(ctx, userSessionPrefix+userID).Result()
	if err != nil {
		return 0, err
	}
	var removed int64
	for _, id := range ids {
		n, err := r.client.Del(ctx, sessionKeyPrefix+id).Result()
		if err != nil {
			return removed, err
		}
		removed += n
	}
	if err := r.client.Del(ctx, userSessionPrefix+userID).Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

func (r *RedisSessionRepository) DeleteExpired(now time.Time) (int64, error) {
	ctx := context.Background()
	var pruned int64
	iter := r.client.Scan(ctx, 0, userSessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()
		ids, err := r.client.SMembers(ctx, setKey).Result()
		if err != nil {
			return pruned, err
		}
		for _, id := range ids {
			exists, err := r.client.Exists(ctx, sessionKeyPrefix+id).Result()
			if err != nil {
				return pruned, err
			}
			if exists == 0 {
				if err := r.client.SRem(ctx, setKey, id).Err(); err != nil {
					return pruned, err
				}
				pruned++
			}
		}
	}
	return pruned, iter.Err()
}
