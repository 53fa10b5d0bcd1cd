package service

import (
	"context"
	"log"
	"strings"

	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/domain"
	"github.com/xiaot623/medintake/internal/tools"
)

// turn is the outcome of advancing a session by one user message.
type turn struct {
	reply    string
	reason   string
	outcome  string
	finished bool
}

// advance applies one user message to sess according to its stage. sess is
// a private copy; on error the caller discards it.
func (s *Service) advance(ctx context.Context, sess *domain.Session, text string) (*turn, error) {
	switch sess.Stage {
	case domain.StageGreeting:
		sess.Stage = domain.StageCollecting
		return &turn{reply: s.locale.Greeting(sess.UserID), reason: "greeted", outcome: "greeting"}, nil

	case domain.StageCollecting:
		return s.collect(ctx, sess, text)

	case domain.StageTreatment:
		if s.termination.IsTermination(text) {
			return s.finish(ctx, sess), nil
		}
		return s.treat(ctx, sess, text)

	case domain.StageFinished:
		return &turn{reply: s.locale.AlreadyFinishedReply, outcome: "already_finished", finished: true}, nil

	case domain.StageError:
		return &turn{reply: s.locale.ErrorReply, outcome: "error"}, nil

	default:
		log.Printf("ERROR: %v: session %s has stage %q", domain.ErrInvalidState, sess.UserID, sess.Stage)
		sess.Stage = domain.StageError
		return &turn{reply: s.locale.ErrorReply, reason: "invalid_state", outcome: "error"}, nil
	}
}

func (s *Service) collect(ctx context.Context, sess *domain.Session, text string) (*turn, error) {
	msg, err := s.callModel(ctx, sess, text)
	if err != nil {
		return nil, err
	}
	s.applyTools(ctx, sess, msg.ToolCalls)

	now := s.now()
	sess.AppendMessage(domain.RoleUser, text, now)
	sess.AppendMessage(domain.RoleAssistant, msg.Content, now)

	t := &turn{reply: msg.Content, outcome: "collecting"}
	if s.completion.IsCollectionComplete(msg.Content) {
		sess.Stage = domain.StageTreatment
		t.reason = "collection_complete"
		t.outcome = "collection_complete"
	}
	return t, nil
}

func (s *Service) treat(ctx context.Context, sess *domain.Session, text string) (*turn, error) {
	msg, err := s.callModel(ctx, sess, text)
	if err != nil {
		return nil, err
	}
	s.applyTools(ctx, sess, msg.ToolCalls)

	reply := msg.Content
	if strings.TrimSpace(reply) == "" {
		reply = s.locale.DraftFallbackPrefix + " " + sess.DraftContent
	}

	now := s.now()
	sess.AppendMessage(domain.RoleUser, text, now)
	sess.AppendMessage(domain.RoleAssistant, reply, now)

	return &turn{reply: reply, outcome: "treatment"}, nil
}

// finish saves the draft on the user's request and closes the session.
// A failed save leaves the session in treatment so the user can retry.
func (s *Service) finish(ctx context.Context, sess *domain.Session) *turn {
	res := s.dispatcher.Persist(ctx, sess)
	s.recordToolResult(ctx, sess.UserID, res)

	if res.Failed() {
		log.Printf("WARN: draft of %s not saved, staying in treatment: %v", sess.UserID, res.Err)
		return &turn{reply: s.locale.PersistFailed(res.Output), outcome: "persist_failed"}
	}

	sess.Stage = domain.StageFinished
	return &turn{
		reply:    s.locale.Farewell(res.Output),
		reason:   "user_terminated",
		outcome:  "finished",
		finished: true,
	}
}

func (s *Service) applyTools(ctx context.Context, sess *domain.Session, calls []llm.ToolCall) {
	if len(calls) == 0 {
		return
	}
	for _, res := range s.dispatcher.DispatchAll(ctx, sess, calls) {
		s.recordToolResult(ctx, sess.UserID, res)
	}
}

func (s *Service) recordToolResult(ctx context.Context, userID string, res tools.Result) {
	s.emit(ctx, userID, domain.EventTypeToolDispatched, domain.ToolDispatchedPayload{
		ToolCallID: res.CallID,
		ToolName:   string(res.Tool),
		Origin:     string(res.Origin),
		Decision:   res.Decision.Decision,
		Reason:     res.Decision.Reason,
		Output:     res.Output,
		Failed:     res.Failed(),
	})
}
