package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akillionvoice/callcore/internal/domain"
	"github.com/akillionvoice/callcore/internal/service"
	"github.com/akillionvoice/callcore/internal/session"
)

// CreateCallRequest starts a session for an inbound call.
type CreateCallRequest struct {
	CallID   string `json:"call_id"`
	CallerID string `json:"caller_id"`
}

// CreateCall creates (or returns) the session for a call.
// POST /v1/calls
func (h *Handler) CreateCall(c echo.Context) error {
	var req CreateCallRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.CallID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "call_id is required"})
	}

	info := h.service.CreateSession(req.CallID, req.CallerID)
	return c.JSON(http.StatusOK, info)
}

// RouteCallRequest carries the call's first utterance.
type RouteCallRequest struct {
	CallerID  string `json:"caller_id"`
	Utterance string `json:"utterance"`
}

// RouteCall routes the first utterance to an agent.
// POST /v1/calls/:call_id/route
func (h *Handler) RouteCall(c echo.Context) error {
	ctx := c.Request().Context()
	callID := c.Param("call_id")

	var req RouteCallRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	decision := h.service.RouteCall(ctx, callID, req.CallerID, req.Utterance)
	return c.JSON(http.StatusOK, decision)
}

// TurnRequest carries one caller utterance.
type TurnRequest struct {
	Utterance string `json:"utterance"`
}

// TurnResponse carries the agent's reply.
type TurnResponse struct {
	CallID string `json:"call_id"`
	Reply  string `json:"reply"`
}

// ProcessTurn handles one conversation turn.
// POST /v1/calls/:call_id/turn
func (h *Handler) ProcessTurn(c echo.Context) error {
	ctx := c.Request().Context()
	callID := c.Param("call_id")

	var req TurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Utterance == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "utterance is required"})
	}

	reply, err := h.service.ProcessTurn(ctx, callID, req.Utterance)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "call not found"})
		}
		if errors.Is(err, session.ErrSessionEnded) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "call has ended"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, TurnResponse{CallID: callID, Reply: reply})
}

// EndCallRequest finalizes a call.
type EndCallRequest struct {
	Status string `json:"status"`
}

// EndCall finalizes a call and returns its report.
// POST /v1/calls/:call_id/end
func (h *Handler) EndCall(c echo.Context) error {
	ctx := c.Request().Context()
	callID := c.Param("call_id")

	var req EndCallRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	status := domain.CallStatus(req.Status)
	if req.Status == "" {
		status = domain.CallStatusCompleted
	}
	switch status {
	case domain.CallStatusCompleted, domain.CallStatusFailed, domain.CallStatusAbandoned:
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status: " + req.Status})
	}

	report, err := h.service.EndCall(ctx, callID, status)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "call not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, report)
}

// ListActiveCalls lists snapshots of live sessions.
// GET /v1/calls/active
func (h *Handler) ListActiveCalls(c echo.Context) error {
	infos := h.service.ListActive()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(infos),
		"calls": infos,
	})
}
