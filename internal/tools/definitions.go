package tools

import (
	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/domain"
)

// Definitions returns the function declarations offered to the model.
func Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        string(domain.ToolUpdateDraftContent),
				Description: "Replace the user's medical recommendation draft with the complete, updated recommendation text.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"content": map[string]interface{}{
							"type":        "string",
							"description": "The full recommendation text. Replaces any previous draft.",
						},
					},
					"required": []string{"content"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        string(domain.ToolPersistDraft),
				Description: "Save the current recommendation draft for the user when they want to finish or keep it.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"user_id": map[string]interface{}{
							"type":        "string",
							"description": "The user's name.",
						},
					},
					"required": []string{"user_id"},
				},
			},
		},
	}
}
