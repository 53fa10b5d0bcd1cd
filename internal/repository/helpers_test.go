package store

import "github.com/xiaot623/medintake/internal/domain"

func newEvent(id, userID string, ts int64) *domain.Event {
	return &domain.Event{
		EventID: id,
		UserID:  userID,
		Ts:      ts,
		Type:    domain.EventTypeStageChanged,
	}
}
