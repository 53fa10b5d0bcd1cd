package domain

import "time"

// Keys of the collected intake fields.
const (
	InfoPainLocation      = "pain_location"
	InfoBodyHeat          = "body_heat"
	InfoPreviousTreatment = "previous_treatment"
)

// CollectedInfo maps each intake field to its value, nil while unknown.
type CollectedInfo map[string]*string

// NewCollectedInfo returns the intake fields with every value unset.
func NewCollectedInfo() CollectedInfo {
	return CollectedInfo{
		InfoPainLocation:      nil,
		InfoBodyHeat:          nil,
		InfoPreviousTreatment: nil,
	}
}

// Clone returns a copy that shares no pointers with c.
func (c CollectedInfo) Clone() CollectedInfo {
	if c == nil {
		return nil
	}
	out := make(CollectedInfo, len(c))
	for k, v := range c {
		if v != nil {
			val := *v
			out[k] = &val
		} else {
			out[k] = nil
		}
	}
	return out
}

// Message is a single entry of a conversation history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds the conversation state of one user.
type Session struct {
	UserID         string        `json:"user_id"`
	Stage          Stage         `json:"stage"`
	MessageHistory []Message     `json:"message_history"`
	CollectedInfo  CollectedInfo `json:"collected_info"`
	DraftContent   string        `json:"draft_content"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewSession creates a session in the greeting stage.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:         userID,
		Stage:          StageGreeting,
		MessageHistory: []Message{},
		CollectedInfo:  NewCollectedInfo(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.MessageHistory = make([]Message, len(s.MessageHistory))
	copy(out.MessageHistory, s.MessageHistory)
	out.CollectedInfo = s.CollectedInfo.Clone()
	return &out
}

// AppendMessage adds a message to the end of the history.
func (s *Session) AppendMessage(role Role, content string, now time.Time) {
	s.MessageHistory = append(s.MessageHistory, Message{
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})
}
