package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/medintake/internal/adapter/artifact"
	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/config"
	"github.com/xiaot623/medintake/internal/domain"
	"github.com/xiaot623/medintake/internal/prompt"
	store "github.com/xiaot623/medintake/internal/repository"
	"github.com/xiaot623/medintake/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Locale = "en"
	cfg.LLMProvider = config.ProviderMock
	cfg.CORSAllowedOrigins = []string{"http://allowed.test"}

	artifacts, err := artifact.NewFileStore(t.TempDir())
	require.NoError(t, err)
	mem := store.NewMemoryStore()
	svc, err := service.New(mem, artifacts, llm.NewMockClient(prompt.English.CompletionAnnouncement), cfg, nil, service.WithEventStore(mem))
	require.NoError(t, err)

	e := echo.New()
	e.GET("/api/chatBot/ws", NewServer(cfg, svc).HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chatBot/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame ClientFrame) ServerFrame {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp ServerFrame
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestChatOverWebSocket(t *testing.T) {
	conn := dial(t, newTestServer(t), nil)

	resp := roundTrip(t, conn, ClientFrame{Type: TypeChat, RequestID: "r1", Name: "Dana", Message: "hi"})
	assert.Equal(t, TypeReply, resp.Type)
	assert.Equal(t, "r1", resp.RequestID)
	assert.Equal(t, domain.StageCollecting, resp.Stage)
	assert.Equal(t, prompt.English.Greeting("Dana"), resp.Reply)

	resp = roundTrip(t, conn, ClientFrame{Type: TypeChat, RequestID: "r2", Name: "Dana", Message: "my head hurts"})
	assert.Equal(t, TypeReply, resp.Type)
	assert.Contains(t, resp.Reply, "[MOCK]")

	resp = roundTrip(t, conn, ClientFrame{Type: TypeInfo, RequestID: "r3", Name: "Dana"})
	assert.Equal(t, TypeInfoResp, resp.Type)
	require.NotNil(t, resp.Info)
	assert.Equal(t, 2, resp.Info.MessageCount)

	resp = roundTrip(t, conn, ClientFrame{Type: TypeReset, RequestID: "r4", Name: "Dana"})
	assert.Equal(t, TypeResetAck, resp.Type)
	assert.Equal(t, "Session reset successfully", resp.Message)

	resp = roundTrip(t, conn, ClientFrame{Type: TypeInfo, Name: "Dana"})
	assert.Equal(t, domain.StageNew, resp.Info.Stage)
	assert.NotEmpty(t, resp.RequestID)
}

func TestWebSocketErrors(t *testing.T) {
	conn := dial(t, newTestServer(t), nil)

	resp := roundTrip(t, conn, ClientFrame{Type: TypeChat, RequestID: "r1", Name: "Dana"})
	assert.Equal(t, TypeError, resp.Type)
	assert.Equal(t, ErrorCodeValidation, resp.Code)

	resp = roundTrip(t, conn, ClientFrame{Type: "dance", RequestID: "r2"})
	assert.Equal(t, TypeError, resp.Type)
	assert.Equal(t, ErrorCodeInvalidMessage, resp.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var frame ServerFrame
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, ErrorCodeInvalidMessage, frame.Code)
}

func TestWebSocketOriginCheck(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chatBot/ws"

	_, resp, err := websocket.DefaultDialer.DialContext(context.Background(), url, http.Header{"Origin": []string{"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, srv, http.Header{"Origin": []string{"http://allowed.test"}})
	frame := roundTrip(t, conn, ClientFrame{Type: TypeInfo, Name: "x"})
	assert.Equal(t, TypeInfoResp, frame.Type)
}
