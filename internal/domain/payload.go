package domain

// StageChangedPayload is the payload for stage_changed events.
type StageChangedPayload struct {
	From   Stage  `json:"from"`
	To     Stage  `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// LLMCallDonePayload is the payload for llm_call_done events.
type LLMCallDonePayload struct {
	RequestID        string `json:"request_id"`
	Model            string `json:"model"`
	Stage            Stage  `json:"stage"`
	LatencyMs        int64  `json:"latency_ms"`
	ToolCalls        int    `json:"tool_calls"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	TotalTokens      int    `json:"total_tokens,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ToolDispatchedPayload is the payload for tool_dispatched events.
type ToolDispatchedPayload struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name"`
	Origin     string `json:"origin"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason,omitempty"`
	Output     string `json:"output"`
	Failed     bool   `json:"failed"`
}

// SessionResetPayload is the payload for session_reset events.
type SessionResetPayload struct {
	Stage        Stage `json:"stage"`
	MessageCount int   `json:"message_count"`
}
