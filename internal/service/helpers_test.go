package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xiaot623/medintake/internal/adapter/artifact"
	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/config"
	store "github.com/xiaot623/medintake/internal/repository"
	"github.com/xiaot623/medintake/policy"
)

// stubLLM answers every request with respond and records what it was sent.
type stubLLM struct {
	mu       sync.Mutex
	requests []*llm.ChatCompletionRequest
	respond  func(req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error)
}

func (s *stubLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	respond := s.respond
	s.mu.Unlock()

	if respond == nil {
		return reply("ok"), nil
	}
	return respond(req)
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubLLM) last() *llm.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

func (s *stubLLM) setRespond(fn func(req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error)) {
	s.mu.Lock()
	s.respond = fn
	s.mu.Unlock()
}

// answer makes the stub reply with a fixed message.
func (s *stubLLM) answer(content string, calls ...llm.ToolCall) {
	s.setRespond(func(*llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
		return reply(content, calls...), nil
	})
}

func (s *stubLLM) fail(err error) {
	s.setRespond(func(*llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
		return nil, err
	})
}

func reply(content string, calls ...llm.ToolCall) *llm.ChatCompletionResponse {
	return &llm.ChatCompletionResponse{
		Model: "stub",
		Choices: []llm.Choice{{
			Message: &llm.ChatMessage{
				Role:      llm.RoleAssistant,
				Content:   content,
				ToolCalls: calls,
			},
		}},
	}
}

func updateDraft(id, content string) llm.ToolCall {
	return llm.ToolCall{
		ID:       id,
		Type:     "function",
		Function: llm.ToolCallFunction{Name: "update_draft_content", Arguments: `{"content":"` + content + `"}`},
	}
}

type brokenArtifacts struct{}

func (brokenArtifacts) SaveArtifact(ctx context.Context, key, content string) error {
	return errors.New("bucket unavailable")
}

func (brokenArtifacts) LoadArtifact(ctx context.Context, key string) (string, error) {
	return "", errors.New("bucket unavailable")
}

type testEnv struct {
	svc       *Service
	llm       *stubLLM
	store     *store.MemoryStore
	artifacts artifact.Store
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	fs, err := artifact.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return newTestEnvWithArtifacts(t, fs, mutate...)
}

func newTestEnvWithArtifacts(t *testing.T, artifacts artifact.Store, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Locale = "en"
	cfg.LLMProvider = config.ProviderMock
	cfg.LLMTimeout = 2 * time.Second
	cfg.PersistTimeout = time.Second
	for _, m := range mutate {
		m(cfg)
	}

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	mem := store.NewMemoryStore()
	stub := &stubLLM{}
	svc, err := New(mem, artifacts, stub, cfg, engine, WithEventStore(mem))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{svc: svc, llm: stub, store: mem, artifacts: artifacts}
}

// toTreatment drives user through greeting and collection.
func (e *testEnv) toTreatment(t *testing.T, user string) {
	t.Helper()
	ctx := context.Background()
	if _, err := e.svc.ProcessMessage(ctx, user, "hello"); err != nil {
		t.Fatalf("greeting turn: %v", err)
	}
	e.llm.answer("All information gathered! Preparing medical recommendations...")
	res, err := e.svc.ProcessMessage(ctx, user, "my head hurts, no fever, took nothing")
	if err != nil {
		t.Fatalf("collecting turn: %v", err)
	}
	if res.Stage != "treatment" {
		t.Fatalf("expected treatment stage, got %s", res.Stage)
	}
}
