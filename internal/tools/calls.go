// Package tools decodes and applies the tool calls a model may issue.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/domain"
)

var (
	// ErrUnknownTool is returned for tool names outside the supported set.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidToolArgs is returned when arguments do not match the schema.
	ErrInvalidToolArgs = errors.New("invalid tool arguments")
	// ErrToolBlocked is returned when the policy refuses a call.
	ErrToolBlocked = errors.New("tool call blocked by policy")
)

// Call is a decoded tool call. UpdateDraftContent and PersistDraft are the
// only implementations.
type Call interface {
	Name() domain.ToolName
	CallID() string
	isCall()
}

// UpdateDraftContent replaces the session draft with Content.
type UpdateDraftContent struct {
	ID      string
	Content string
}

// PersistDraft saves the session draft to the artifact store. UserID is
// what the model passed; the session's own user id is always used.
type PersistDraft struct {
	ID     string
	UserID string
}

func (UpdateDraftContent) Name() domain.ToolName { return domain.ToolUpdateDraftContent }
func (c UpdateDraftContent) CallID() string      { return c.ID }
func (UpdateDraftContent) isCall()               {}

func (PersistDraft) Name() domain.ToolName { return domain.ToolPersistDraft }
func (c PersistDraft) CallID() string      { return c.ID }
func (PersistDraft) isCall()               {}

// Decode converts a raw model tool call into a Call.
func Decode(tc llm.ToolCall) (Call, error) {
	args := tc.Function.Arguments
	if args == "" {
		args = "{}"
	}

	switch domain.ToolName(tc.Function.Name) {
	case domain.ToolUpdateDraftContent:
		var a struct {
			Content *string `json:"content"`
		}
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidToolArgs, tc.Function.Name, err)
		}
		if a.Content == nil {
			return nil, fmt.Errorf("%w: %s: content is required", ErrInvalidToolArgs, tc.Function.Name)
		}
		return UpdateDraftContent{ID: tc.ID, Content: *a.Content}, nil

	case domain.ToolPersistDraft:
		var a struct {
			UserID string `json:"user_id"`
			Name   string `json:"name"`
		}
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidToolArgs, tc.Function.Name, err)
		}
		if a.UserID == "" {
			a.UserID = a.Name
		}
		return PersistDraft{ID: tc.ID, UserID: a.UserID}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tc.Function.Name)
	}
}
