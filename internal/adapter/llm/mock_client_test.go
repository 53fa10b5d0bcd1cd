package llm

import (
	"context"
	"strings"
	"testing"
)

func TestMockClientCollectsThenCompletes(t *testing.T) {
	client := NewMockClient("ALL INFORMATION GATHERED")
	req := &ChatCompletionRequest{
		Model: "mock",
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: "ask questions"},
			{Role: RoleUser, Content: "head"},
		},
	}

	resp, err := client.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	if strings.Contains(resp.FirstMessage().Content, "ALL INFORMATION GATHERED") {
		t.Fatalf("mock completed too early: %q", resp.FirstMessage().Content)
	}

	req.Messages = append(req.Messages,
		ChatMessage{Role: RoleAssistant, Content: "?"},
		ChatMessage{Role: RoleUser, Content: "38.5"},
		ChatMessage{Role: RoleAssistant, Content: "?"},
		ChatMessage{Role: RoleUser, Content: "nothing yet"},
	)
	resp, err = client.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	if !strings.Contains(resp.FirstMessage().Content, "ALL INFORMATION GATHERED") {
		t.Fatalf("expected completion announcement, got %q", resp.FirstMessage().Content)
	}
}

func TestMockClientDraftsInTreatment(t *testing.T) {
	client := NewMockClient("done")
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model: "mock",
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: "FIRST call update_draft_content"},
			{Role: RoleUser, Content: "what should I do?"},
		},
		Tools: []Tool{{Type: "function", Function: ToolFunction{Name: "update_draft_content"}}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	calls := resp.FirstMessage().ToolCalls
	if len(calls) != 1 || calls[0].Function.Name != "update_draft_content" {
		t.Fatalf("unexpected tool calls: %+v", calls)
	}
}

func TestMockClientCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockClient("done").CreateChatCompletion(ctx, &ChatCompletionRequest{}); err == nil {
		t.Fatalf("expected context error")
	}
}
