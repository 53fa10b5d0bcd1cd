package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// converseAPI is the subset of the Bedrock runtime client used here.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient calls Anthropic models hosted on Amazon Bedrock through
// the Converse API.
type BedrockClient struct {
	api converseAPI
}

// NewBedrockClient loads the default AWS credential chain for region.
func NewBedrockClient(ctx context.Context, region string) (*BedrockClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &BedrockClient{api: bedrockruntime.NewFromConfig(cfg)}, nil
}

// CreateChatCompletion sends the conversation through Converse.
func (c *BedrockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	input, err := toConverseInput(req)
	if err != nil {
		return nil, err
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}

	return fromConverseOutput(req.Model, out)
}

func toConverseInput(req *ChatCompletionRequest) (*bedrockruntime.ConverseInput, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.Model),
	}

	if req.Temperature != nil || req.MaxTokens != nil {
		input.InferenceConfig = &types.InferenceConfiguration{}
		if req.Temperature != nil {
			input.InferenceConfig.Temperature = aws.Float32(float32(*req.Temperature))
		}
		if req.MaxTokens != nil {
			input.InferenceConfig.MaxTokens = aws.Int32(int32(*req.MaxTokens))
		}
	}

	for _, m := range req.Messages {
		var role types.ConversationRole
		var blocks []types.ContentBlock

		switch m.Role {
		case RoleSystem:
			input.System = append(input.System, &types.SystemContentBlockMemberText{Value: m.Content})
			continue
		case RoleUser:
			role = types.ConversationRoleUser
			blocks = append(blocks, &types.ContentBlockMemberText{Value: m.Content})
		case RoleAssistant:
			role = types.ConversationRoleAssistant
			if m.Content != "" {
				blocks = append(blocks, &types.ContentBlockMemberText{Value: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String(tc.ID),
					Name:      aws.String(tc.Function.Name),
					Input:     document.NewLazyDocument(rawArguments(tc.Function.Arguments)),
				}})
			}
		case RoleTool:
			role = types.ConversationRoleUser
			blocks = append(blocks, &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
				ToolUseId: aws.String(m.ToolCallID),
				Content: []types.ToolResultContentBlock{
					&types.ToolResultContentBlockMemberText{Value: m.Content},
				},
			}})
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}

		if len(blocks) == 0 {
			continue
		}
		// Converse rejects two consecutive turns from the same role.
		if n := len(input.Messages); n > 0 && input.Messages[n-1].Role == role {
			input.Messages[n-1].Content = append(input.Messages[n-1].Content, blocks...)
			continue
		}
		input.Messages = append(input.Messages, types.Message{Role: role, Content: blocks})
	}

	if len(req.Tools) > 0 {
		toolConfig := &types.ToolConfiguration{}
		for _, t := range req.Tools {
			params := t.Function.Parameters
			if params == nil {
				params = map[string]interface{}{"type": "object"}
			}
			toolConfig.Tools = append(toolConfig.Tools, &types.ToolMemberToolSpec{Value: types.ToolSpecification{
				Name:        aws.String(t.Function.Name),
				Description: aws.String(t.Function.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(params)},
			}})
		}
		input.ToolConfig = toolConfig
	}

	return input, nil
}

func fromConverseOutput(model string, out *bedrockruntime.ConverseOutput) (*ChatCompletionResponse, error) {
	msgOut, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("bedrock converse returned no message")
	}

	var text strings.Builder
	msg := &ChatMessage{Role: RoleAssistant}
	for _, block := range msgOut.Value.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			text.WriteString(b.Value)
		case *types.ContentBlockMemberToolUse:
			args := "{}"
			if b.Value.Input != nil {
				raw, err := b.Value.Input.MarshalSmithyDocument()
				if err != nil {
					return nil, fmt.Errorf("failed to decode tool input: %w", err)
				}
				args = string(raw)
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:   aws.ToString(b.Value.ToolUseId),
				Type: "function",
				Function: ToolCallFunction{
					Name:      aws.ToString(b.Value.Name),
					Arguments: args,
				},
			})
		}
	}
	msg.Content = text.String()

	resp := &ChatCompletionResponse{
		ID:      fmt.Sprintf("bedrock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{{
			Index:        0,
			Message:      msg,
			FinishReason: string(out.StopReason),
		}},
	}
	if out.Usage != nil {
		resp.Usage = &Usage{
			PromptTokens:     int(aws.ToInt32(out.Usage.InputTokens)),
			CompletionTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:      int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}
	return resp, nil
}

// rawArguments decodes JSON tool arguments for re-encoding as a document.
func rawArguments(args string) interface{} {
	var v map[string]interface{}
	if err := json.Unmarshal([]byte(args), &v); err != nil || v == nil {
		return map[string]interface{}{}
	}
	return v
}
