package domain

import "encoding/json"

// Event represents an audit event in a user's conversation.
type Event struct {
	EventID string          `json:"event_id"`
	UserID  string          `json:"user_id"`
	Ts      int64           `json:"ts"`
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
