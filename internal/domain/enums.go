// Package domain defines the core domain models for the intake service.
package domain

// Stage represents the phase of a guided intake conversation.
type Stage string

const (
	StageGreeting   Stage = "greeting"
	StageCollecting Stage = "questions"
	StageTreatment  Stage = "treatment"
	StageFinished   Stage = "finished"
	StageError      Stage = "error"

	// StageNew is reported for users without a session. It is never stored.
	StageNew Stage = "new"
)

// Valid reports whether s is one of the stages a session can be in.
func (s Stage) Valid() bool {
	switch s {
	case StageGreeting, StageCollecting, StageTreatment, StageFinished, StageError:
		return true
	}
	return false
}

// Terminal reports whether no further model calls happen in this stage.
func (s Stage) Terminal() bool {
	return s == StageFinished || s == StageError
}

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// EventType represents the type of an audit event.
type EventType string

const (
	EventTypeSessionCreated EventType = "session_created"
	EventTypeStageChanged   EventType = "stage_changed"
	EventTypeLLMCallDone    EventType = "llm_call_done"
	EventTypeToolDispatched EventType = "tool_dispatched"
	EventTypeSessionReset   EventType = "session_reset"
)

// ChatAction is the operation requested through the chat endpoint.
type ChatAction string

const (
	ActionChat  ChatAction = "chat"
	ActionInfo  ChatAction = "info"
	ActionReset ChatAction = "reset"
)

// ToolName identifies a local action the model may request.
type ToolName string

const (
	ToolUpdateDraftContent ToolName = "update_draft_content"
	ToolPersistDraft       ToolName = "persist_draft"
)
