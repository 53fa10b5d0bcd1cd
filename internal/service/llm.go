package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/domain"
	"github.com/xiaot623/medintake/internal/tools"
)

// callModel sends the stage prompt, the session history and the new user
// text to the model. It does not touch the session.
func (s *Service) callModel(ctx context.Context, sess *domain.Session, text string) (*llm.ChatMessage, error) {
	systemPrompt, err := s.prompts.Build(sess)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.ChatMessage, 0, len(sess.MessageHistory)+2)
	messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range sess.MessageHistory {
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: text})

	temperature := s.config.LLMTemperature
	req := &llm.ChatCompletionRequest{
		Model:       s.config.LLMModel,
		Messages:    messages,
		Temperature: &temperature,
		Tools:       tools.Definitions(),
	}

	requestID := "llm_" + uuid.New().String()[:8]
	callCtx := ctx
	if s.config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.config.LLMTimeout)
		defer cancel()
	}

	startTime := time.Now()
	resp, err := s.llmClient.CreateChatCompletion(callCtx, req)
	elapsed := time.Since(startTime)
	s.metrics.ObserveLLMCall(s.config.LLMProvider, elapsed, err)

	payload := domain.LLMCallDonePayload{
		RequestID: requestID,
		Model:     req.Model,
		Stage:     sess.Stage,
		LatencyMs: elapsed.Milliseconds(),
	}
	if err != nil {
		payload.Error = err.Error()
		s.emit(ctx, sess.UserID, domain.EventTypeLLMCallDone, payload)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	if resp.Model != "" {
		payload.Model = resp.Model
	}
	if resp.Usage != nil {
		payload.PromptTokens = resp.Usage.PromptTokens
		payload.CompletionTokens = resp.Usage.CompletionTokens
		payload.TotalTokens = resp.Usage.TotalTokens
	}

	msg := resp.FirstMessage()
	if msg == nil {
		payload.Error = "no choices in response"
		s.emit(ctx, sess.UserID, domain.EventTypeLLMCallDone, payload)
		return nil, fmt.Errorf("%w: empty model response", domain.ErrUpstream)
	}
	payload.ToolCalls = len(msg.ToolCalls)
	s.emit(ctx, sess.UserID, domain.EventTypeLLMCallDone, payload)

	return msg, nil
}
