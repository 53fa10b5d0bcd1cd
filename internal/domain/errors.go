package domain

import "errors"

var (
	// ErrValidation is returned when a request is missing required fields.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownAction is returned for actions other than chat, info and reset.
	ErrUnknownAction = errors.New("invalid action")
	// ErrUpstream is returned when the language model call fails or times out.
	// The session is left as it was before the turn.
	ErrUpstream = errors.New("upstream model service failed")
	// ErrPersistence is returned when the artifact store cannot save a draft.
	ErrPersistence = errors.New("failed to persist draft")
	// ErrInvalidState is returned when a session holds an unknown stage.
	ErrInvalidState = errors.New("invalid session state")
	// ErrSessionNotFound is returned by stores for unknown users.
	ErrSessionNotFound = errors.New("session not found")
	// ErrArtifactNotFound is returned by artifact stores for unknown keys.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrTooManySessions is returned when the active user limit is reached.
	ErrTooManySessions = errors.New("too many active sessions")
)
