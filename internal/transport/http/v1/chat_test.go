package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/config"
	"github.com/xiaot623/medintake/internal/domain"
	"github.com/xiaot623/medintake/internal/prompt"
	store "github.com/xiaot623/medintake/internal/repository"
	"github.com/xiaot623/medintake/internal/service"
	"github.com/xiaot623/medintake/policy"
	"github.com/xiaot623/medintake/tests/helpers"
)

type failingLLM struct{}

func (failingLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	return nil, errors.New("model overloaded")
}

func newTestHandler(t *testing.T, client llm.LLMClient) (*Handler, *store.SQLiteStore) {
	t.Helper()

	cfg := config.Default()
	cfg.Locale = "en"
	cfg.LLMProvider = config.ProviderMock
	db := helpers.NewTestSQLiteStore(t)

	if client == nil {
		client = llm.NewMockClient(prompt.English.CompletionAnnouncement)
	}
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	svc, err := service.New(db, db, client, cfg, policyEngine, service.WithEventStore(db))
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}
	return NewHandler(svc), db
}

func postChat(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chatBot/chat", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Chat(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestChatGreeting(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := postChat(t, h, `{"message":"hello","name":"Dana"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ChatResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StageCollecting, resp.Stage)
	assert.Equal(t, prompt.English.Greeting("Dana"), resp.Reply)
	assert.False(t, resp.Finished)
}

func TestChatDefaultName(t *testing.T) {
	h, db := newTestHandler(t, nil)

	rec := postChat(t, h, `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := db.GetSession(context.Background(), prompt.English.DefaultUserName)
	assert.NoError(t, err)
}

func TestChatMissingMessage(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := postChat(t, h, `{"name":"Dana"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing message", decodeError(t, rec))
}

func TestChatInvalidAction(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := postChat(t, h, `{"name":"Dana","action":"dance"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid action", decodeError(t, rec))
}

func TestChatInvalidJSON(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := postChat(t, h, `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decodeError(t, rec))
}

func TestChatInfoAndReset(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := postChat(t, h, `{"name":"Dana","action":"info"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var info domain.SessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, domain.StageNew, info.Stage)
	assert.Equal(t, 0, info.MessageCount)
	assert.Empty(t, info.CollectedInfo)

	postChat(t, h, `{"message":"hi","name":"Dana"}`)
	postChat(t, h, `{"message":"my throat","name":"Dana"}`)

	rec = postChat(t, h, `{"name":"Dana","action":"info"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, domain.StageCollecting, info.Stage)
	assert.Equal(t, 2, info.MessageCount)
	assert.Len(t, info.CollectedInfo, 3)

	rec = postChat(t, h, `{"name":"Dana","action":"reset"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Session reset successfully"}`, rec.Body.String())

	rec = postChat(t, h, `{"name":"Dana","action":"info"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, domain.StageNew, info.Stage)
}

func TestChatUpstreamFailure(t *testing.T) {
	h, _ := newTestHandler(t, failingLLM{})

	postChat(t, h, `{"message":"hi","name":"Dana"}`)
	rec := postChat(t, h, `{"message":"it hurts","name":"Dana"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec))
}

func TestFullConversationSavesPlan(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	postChat(t, h, `{"message":"hi","name":"Dana"}`)
	var resp domain.ChatResult
	// the mock asks questions until it has three answers in one request
	for _, msg := range []string{"my head", "no fever", "nothing yet"} {
		rec := postChat(t, h, `{"message":"`+msg+`","name":"Dana"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	require.Equal(t, domain.StageTreatment, resp.Stage)

	rec := postChat(t, h, `{"message":"what should I do?","name":"Dana"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StageTreatment, resp.Stage)

	rec = postChat(t, h, `{"message":"thanks, save it","name":"Dana"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StageFinished, resp.Stage)
	assert.True(t, resp.Finished)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/chatBot/plans/Dana", nil)
	planRec := httptest.NewRecorder()
	c := e.NewContext(req, planRec)
	c.SetParamNames("name")
	c.SetParamValues("Dana")
	require.NoError(t, h.GetPlan(c))
	assert.Equal(t, http.StatusOK, planRec.Code)
	assert.Contains(t, planRec.Body.String(), "[MOCK] Plan based on:")
}
