package v1

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/medintake/internal/domain"
)

// Chat runs a conversation turn, reports session info or resets a session
// depending on the action.
// POST /api/chatBot/chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Invalid JSON body"})
	}
	if req.Action == "" {
		req.Action = domain.ActionChat
	}

	ctx := c.Request().Context()

	switch req.Action {
	case domain.ActionChat:
		if req.Message == "" {
			return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Missing message"})
		}
		result, err := h.service.ProcessMessage(ctx, req.Name, req.Message)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, result)

	case domain.ActionInfo:
		info, err := h.service.GetInfo(ctx, req.Name)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, info)

	case domain.ActionReset:
		if err := h.service.Reset(ctx, req.Name); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, domain.ResetResponse{Message: "Session reset successfully"})

	default:
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Invalid action"})
	}
}

// GetPlan returns the saved recommendation of a user as plain text.
// GET /api/chatBot/plans/:name
func (h *Handler) GetPlan(c echo.Context) error {
	plan, err := h.service.LoadPlan(c.Request().Context(), c.Param("name"))
	if errors.Is(err, domain.ErrArtifactNotFound) {
		return c.JSON(http.StatusNotFound, domain.ErrorResponse{Error: "No saved plan"})
	}
	if err != nil {
		return errorJSON(c, err)
	}
	return c.String(http.StatusOK, plan)
}

// GetEvents lists the audit events of a user.
// GET /api/chatBot/sessions/:name/events
func (h *Handler) GetEvents(c echo.Context) error {
	limit := 100
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}

	events, err := h.service.ListEvents(c.Request().Context(), c.Param("name"), limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, domain.EventsResponse{Events: events})
}

// errorJSON maps service errors to HTTP responses.
func errorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrTooManySessions):
		log.Printf("WARN: %s %s unavailable: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{Error: "The assistant is temporarily unavailable, please try again"})
	default:
		log.Printf("ERROR: %s %s failed: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "Server error: " + err.Error()})
	}
}
