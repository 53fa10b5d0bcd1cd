package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xiaot623/medintake/internal/domain"
)

// Redis key prefix for sessions
const defaultSessionKeyPrefix = "intake:session:"

// RedisStore implements SessionStore with one JSON value per user.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	now       func() time.Time
}

var _ SessionStore = (*RedisStore)(nil)

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL expires idle sessions after ttl. Zero keeps them forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithRedisKeyPrefix overrides the session key prefix.
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// NewRedisStore creates a Redis-based session store.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: defaultSessionKeyPrefix,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreateSession implements SessionStore.
func (s *RedisStore) GetOrCreateSession(ctx context.Context, userID string) (*domain.Session, bool, error) {
	fresh := domain.NewSession(userID, s.now())
	val, err := json.Marshal(fresh)
	if err != nil {
		return nil, false, err
	}

	created, err := s.client.SetNX(ctx, s.key(userID), val, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}
	if created {
		return fresh, true, nil
	}

	sess, err := s.GetSession(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, s.key(userID), s.ttl).Err(); err != nil {
			return nil, false, fmt.Errorf("failed to refresh session ttl: %w", err)
		}
	}
	return sess, false, nil
}

// GetSession implements SessionStore. It never changes the TTL; only
// GetOrCreateSession and SaveSession keep a session alive.
func (s *RedisStore) GetSession(ctx context.Context, userID string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.MessageHistory == nil {
		sess.MessageHistory = []domain.Message{}
	}
	if sess.CollectedInfo == nil {
		sess.CollectedInfo = domain.NewCollectedInfo()
	}
	return &sess, nil
}

// SaveSession implements SessionStore.
func (s *RedisStore) SaveSession(ctx context.Context, sess *domain.Session) error {
	stored := sess.Clone()
	stored.UpdatedAt = s.now()

	val, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(sess.UserID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession implements SessionStore.
func (s *RedisStore) DeleteSession(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

// Close implements SessionStore.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(userID string) string {
	return s.keyPrefix + userID
}
