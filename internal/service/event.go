package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/xiaot623/medintake/internal/domain"
)

// recordEvent records an event to the event store.
func (s *Service) recordEvent(ctx context.Context, userID string, eventType domain.EventType, payload interface{}) error {
	if s.events == nil {
		return nil
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		UserID:  userID,
		Ts:      s.now().UnixMilli(),
		Type:    eventType,
		Payload: payloadBytes,
	}

	return s.events.CreateEvent(ctx, event)
}

// emit records an event and only logs failures. Audit events never fail a turn.
func (s *Service) emit(ctx context.Context, userID string, eventType domain.EventType, payload interface{}) {
	if err := s.recordEvent(ctx, userID, eventType, payload); err != nil {
		log.Printf("WARN: failed to record %s event for %s: %v", eventType, userID, err)
	}
}

// ListEvents returns the most recent audit events of a user.
func (s *Service) ListEvents(ctx context.Context, userID string, limit int) ([]*domain.Event, error) {
	if s.events == nil {
		return []*domain.Event{}, nil
	}
	events, err := s.events.ListEvents(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}
