package domain

// ChatRequest is the body of POST /api/chatBot/chat.
type ChatRequest struct {
	Message string     `json:"message"`
	Name    string     `json:"name"`
	Action  ChatAction `json:"action"`
}

// ChatResult is the outcome of one conversation turn.
type ChatResult struct {
	Reply    string `json:"reply"`
	Stage    Stage  `json:"stage"`
	Finished bool   `json:"finished"`
}

// SessionInfo is a read-only summary of a session.
type SessionInfo struct {
	Stage         Stage         `json:"stage"`
	MessageCount  int           `json:"message_count"`
	CollectedInfo CollectedInfo `json:"collected_info"`
}

// ResetResponse is returned after a session reset.
type ResetResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error body of every HTTP endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EventsResponse lists audit events of a user.
type EventsResponse struct {
	Events []*Event `json:"events"`
}
