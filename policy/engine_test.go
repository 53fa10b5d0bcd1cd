package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   Input
		allowed bool
	}{
		{"update draft", Input{ToolName: "update_draft_content", Origin: "model", Stage: "treatment"}, true},
		{"persist non-empty draft", Input{ToolName: "persist_draft", Origin: "model", DraftLength: 12}, true},
		{"model persists empty draft", Input{ToolName: "persist_draft", Origin: "model", DraftLength: 0}, false},
		{"user persists empty draft", Input{ToolName: "persist_draft", Origin: "user", DraftLength: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := engine.Evaluate(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, d.Allowed())
			if !tt.allowed {
				assert.Equal(t, DecisionBlock, d.Decision)
				assert.Equal(t, "no draft content to persist", d.Reason)
			}
		})
	}
}

func TestCustomPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, `
package tool_policy

default decision = "allow"

decision = "block" {
	input.stage == "questions"
}
`)
	require.NoError(t, err)

	d, err := engine.Evaluate(ctx, Input{ToolName: "update_draft_content", Stage: "questions"})
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Empty(t, d.Reason)
}

func TestInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package tool_policy\n\ndecision = {")
	assert.Error(t, err)
}
