package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// mockQuestionsBeforeCompletion is how many user answers the mock collects
// before it announces that intake is complete.
const mockQuestionsBeforeCompletion = 3

// MockClient is a deterministic LLMClient for local runs and tests. It asks
// a fixed number of questions before announcing completion. When offered the
// draft tool in treatment it always calls update_draft_content.
type MockClient struct {
	completionAnnouncement string
}

// NewMockClient creates a new mock LLM client.
func NewMockClient(completionAnnouncement string) *MockClient {
	return &MockClient{completionAnnouncement: completionAnnouncement}
}

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := m.generateMockResponse(req)

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      msg,
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(msg.Content) / 4,
			TotalTokens:      m.estimateTokens(req) + len(msg.Content)/4,
		},
	}, nil
}

func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) *ChatMessage {
	var system string
	var answers []string
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system += msg.Content
		case RoleUser:
			answers = append(answers, msg.Content)
		}
	}

	if hasTool(req.Tools, "update_draft_content") && strings.Contains(system, "update_draft_content") {
		args, _ := json.Marshal(map[string]string{
			"content": "[MOCK] Plan based on: " + strings.Join(answers, "; "),
		})
		return &ChatMessage{
			Role:    RoleAssistant,
			Content: "[MOCK] I have updated your recommendation. Rest, drink fluids and see a doctor if symptoms worsen.",
			ToolCalls: []ToolCall{{
				ID:   fmt.Sprintf("mock_call_%d", len(answers)),
				Type: "function",
				Function: ToolCallFunction{
					Name:      "update_draft_content",
					Arguments: string(args),
				},
			}},
		}
	}

	if len(answers) >= mockQuestionsBeforeCompletion {
		return &ChatMessage{Role: RoleAssistant, Content: "[MOCK] " + m.completionAnnouncement}
	}

	last := ""
	if len(answers) > 0 {
		last = truncate(answers[len(answers)-1], 100)
	}
	return &ChatMessage{
		Role:    RoleAssistant,
		Content: fmt.Sprintf("[MOCK] Received %q. Question %d: can you tell me more?", last, len(answers)),
	}
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

func hasTool(tools []Tool, name string) bool {
	for _, t := range tools {
		if t.Function.Name == name {
			return true
		}
	}
	return false
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
