// Package service runs the guided intake conversation. It owns the stage
// machine and serializes turns per user.
package service

import (
	"fmt"
	"time"

	"github.com/xiaot623/medintake/internal/adapter/artifact"
	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/config"
	"github.com/xiaot623/medintake/internal/observability"
	"github.com/xiaot623/medintake/internal/prompt"
	store "github.com/xiaot623/medintake/internal/repository"
	"github.com/xiaot623/medintake/internal/tools"
)

type Service struct {
	sessions    store.SessionStore
	events      store.EventStore
	artifacts   artifact.Store
	llmClient   llm.LLMClient
	config      *config.Config
	prompts     *prompt.Builder
	locale      prompt.Locale
	dispatcher  *tools.Dispatcher
	completion  CompletionDetector
	termination TerminationDetector
	locks       *KeyedMutex
	metrics     *observability.Metrics
	now         func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics records turn, model and tool metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithEventStore records audit events. Without it no events are kept.
func WithEventStore(events store.EventStore) Option {
	return func(s *Service) { s.events = events }
}

// WithCompletionDetector replaces the phrase based completion check.
func WithCompletionDetector(d CompletionDetector) Option {
	return func(s *Service) { s.completion = d }
}

// WithClock sets the time source for message and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the conversation service. policyEngine may be nil.
func New(sessions store.SessionStore, artifacts artifact.Store, llmClient llm.LLMClient, cfg *config.Config, policyEngine tools.PolicyEvaluator, opts ...Option) (*Service, error) {
	locale, err := prompt.LookupLocale(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load locale: %w", err)
	}

	s := &Service{
		sessions:    sessions,
		artifacts:   artifacts,
		llmClient:   llmClient,
		config:      cfg,
		prompts:     prompt.NewBuilder(locale),
		locale:      locale,
		completion:  NewSentinelDetector(locale.CompletionPhrases),
		termination: NewKeywordDetector(locale.TerminationKeywords),
		locks:       NewKeyedMutex(cfg.MaxActiveUsers),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = tools.NewDispatcher(artifacts, policyEngine, cfg.PersistTimeout, s.metrics)
	return s, nil
}

// Locale returns the conversation locale.
func (s *Service) Locale() prompt.Locale {
	return s.locale
}
