package store

import (
	"context"
	"sync"
	"time"

	"github.com/xiaot623/medintake/internal/domain"
)

// maxEventsPerUser bounds the in-memory audit trail of each user.
const maxEventsPerUser = 500

// MemoryStore keeps sessions and events in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	events   map[string][]*domain.Event
	now      func() time.Time
}

var (
	_ SessionStore = (*MemoryStore)(nil)
	_ EventStore   = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		events:   make(map[string][]*domain.Event),
		now:      time.Now,
	}
}

// GetOrCreateSession implements SessionStore.
func (s *MemoryStore) GetOrCreateSession(ctx context.Context, userID string) (*domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok {
		return sess.Clone(), false, nil
	}
	sess := domain.NewSession(userID, s.now())
	s.sessions[userID] = sess
	return sess.Clone(), true, nil
}

// GetSession implements SessionStore.
func (s *MemoryStore) GetSession(ctx context.Context, userID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// SaveSession implements SessionStore.
func (s *MemoryStore) SaveSession(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := sess.Clone()
	stored.UpdatedAt = s.now()
	s.sessions[sess.UserID] = stored
	return nil
}

// DeleteSession implements SessionStore.
func (s *MemoryStore) DeleteSession(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// Close implements SessionStore.
func (s *MemoryStore) Close() error {
	return nil
}

// CreateEvent implements EventStore.
func (s *MemoryStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *event
	events := append(s.events[event.UserID], &copied)
	if len(events) > maxEventsPerUser {
		events = events[len(events)-maxEventsPerUser:]
	}
	s.events[event.UserID] = events
	return nil
}

// ListEvents implements EventStore.
func (s *MemoryStore) ListEvents(ctx context.Context, userID string, limit int) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[userID]
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]*domain.Event, len(events))
	for i, e := range events {
		copied := *e
		out[i] = &copied
	}
	return out, nil
}
