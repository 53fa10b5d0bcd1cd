package ws

import "github.com/xiaot623/medintake/internal/domain"

// Frame types from client to server
const (
	TypeChat  = "chat"
	TypeInfo  = "info"
	TypeReset = "reset"
)

// Frame types from server to client
const (
	TypeReply    = "reply"
	TypeInfoResp = "info"
	TypeResetAck = "reset_ack"
	TypeError    = "error"
)

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeValidation     = "validation_failed"
	ErrorCodeUnavailable    = "unavailable"
	ErrorCodeBusy           = "busy"
	ErrorCodeInternalError  = "internal_error"
)

// ClientFrame is sent by the client.
type ClientFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ServerFrame is sent by the server. Only the fields of its type are set.
type ServerFrame struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`

	// reply
	Reply    string       `json:"reply,omitempty"`
	Stage    domain.Stage `json:"stage,omitempty"`
	Finished bool         `json:"finished,omitempty"`

	// info
	Info *domain.SessionInfo `json:"info,omitempty"`

	// reset_ack and error
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
