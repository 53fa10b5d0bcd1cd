package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/xiaot623/medintake/internal/domain"
	"github.com/xiaot623/medintake/internal/tools"
)

// ProcessMessage runs one conversation turn for userID. Turns of the same
// user are serialized; on a model failure the stored session is left as it
// was and an error wrapping domain.ErrUpstream is returned.
func (s *Service) ProcessMessage(ctx context.Context, userID, text string) (*domain.ChatResult, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	userID = s.userID(userID)

	if err := s.locks.Lock(userID); err != nil {
		return nil, err
	}
	defer s.locks.Unlock(userID)

	// 1. Load or create the session
	stored, created, err := s.sessions.GetOrCreateSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if created {
		s.emit(ctx, userID, domain.EventTypeSessionCreated, map[string]string{"stage": string(stored.Stage)})
	}

	// 2. Advance a private copy
	sess := stored.Clone()
	from := sess.Stage
	t, err := s.advance(ctx, sess, text)
	if err != nil {
		s.metrics.ObserveTurn(string(from), "upstream_error")
		log.Printf("WARN: turn of %s abandoned in stage %s: %v", userID, from, err)
		return nil, err
	}

	// 3. Write back
	sess.UpdatedAt = s.now()
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if sess.Stage != from {
		s.metrics.ObserveTransition(string(from), string(sess.Stage))
		s.emit(ctx, userID, domain.EventTypeStageChanged, domain.StageChangedPayload{
			From:   from,
			To:     sess.Stage,
			Reason: t.reason,
		})
	}
	s.metrics.ObserveTurn(string(from), t.outcome)

	return &domain.ChatResult{
		Reply:    t.reply,
		Stage:    sess.Stage,
		Finished: t.finished,
	}, nil
}

// GetInfo summarizes the user's session without creating one. Unknown users
// are reported in the "new" stage.
func (s *Service) GetInfo(ctx context.Context, userID string) (*domain.SessionInfo, error) {
	userID = s.userID(userID)

	if err := s.locks.Lock(userID); err != nil {
		return nil, err
	}
	defer s.locks.Unlock(userID)

	sess, err := s.sessions.GetSession(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return &domain.SessionInfo{
			Stage:         domain.StageNew,
			MessageCount:  0,
			CollectedInfo: domain.CollectedInfo{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &domain.SessionInfo{
		Stage:         sess.Stage,
		MessageCount:  len(sess.MessageHistory),
		CollectedInfo: sess.CollectedInfo,
	}, nil
}

// Reset discards the user's session. Resetting an unknown user is not an error.
func (s *Service) Reset(ctx context.Context, userID string) error {
	userID = s.userID(userID)

	if err := s.locks.Lock(userID); err != nil {
		return err
	}
	defer s.locks.Unlock(userID)

	payload := domain.SessionResetPayload{Stage: domain.StageNew}
	sess, err := s.sessions.GetSession(ctx, userID)
	switch {
	case err == nil:
		payload.Stage = sess.Stage
		payload.MessageCount = len(sess.MessageHistory)
	case !errors.Is(err, domain.ErrSessionNotFound):
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := s.sessions.DeleteSession(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.emit(ctx, userID, domain.EventTypeSessionReset, payload)
	return nil
}

// LoadPlan returns the last saved recommendation of the user.
func (s *Service) LoadPlan(ctx context.Context, userID string) (string, error) {
	return s.artifacts.LoadArtifact(ctx, tools.ArtifactKey(s.userID(userID)))
}

// userID keeps names exactly as sent; only a missing name gets the default.
func (s *Service) userID(name string) string {
	if name == "" {
		return s.locale.DefaultUserName
	}
	return name
}
