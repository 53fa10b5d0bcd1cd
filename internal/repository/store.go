// Package store defines the session storage interfaces and implementations.
package store

import (
	"context"

	"github.com/xiaot623/medintake/internal/domain"
)

// SessionStore persists conversation sessions keyed by user id.
//
// Sessions returned by a store are private copies. Callers mutate them and
// write them back with SaveSession. Stores do not serialize concurrent turns
// of the same user; the caller holds a per-user lock for that.
type SessionStore interface {
	// GetOrCreateSession returns the user's session, creating one in the
	// greeting stage when none exists. created reports which happened.
	GetOrCreateSession(ctx context.Context, userID string) (sess *domain.Session, created bool, err error)
	// GetSession returns domain.ErrSessionNotFound for unknown users.
	GetSession(ctx context.Context, userID string) (*domain.Session, error)
	SaveSession(ctx context.Context, sess *domain.Session) error
	// DeleteSession is a no-op for unknown users.
	DeleteSession(ctx context.Context, userID string) error
	Close() error
}

// EventStore records audit events.
type EventStore interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	// ListEvents returns up to limit of the user's most recent events, oldest first.
	ListEvents(ctx context.Context, userID string, limit int) ([]*domain.Event, error)
}
