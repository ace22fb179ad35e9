// Package v1 provides the versioned HTTP API for the call-orchestration core.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akillionvoice/callcore/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Call lifecycle API (driven by the telephony gateway)
	e.POST("/v1/calls", h.CreateCall)
	e.POST("/v1/calls/:call_id/route", h.RouteCall)
	e.POST("/v1/calls/:call_id/turn", h.ProcessTurn)
	e.POST("/v1/calls/:call_id/end", h.EndCall)
	e.GET("/v1/calls/active", h.ListActiveCalls)

	// Agent directory API
	e.GET("/v1/agents", h.ListAgents)
	e.GET("/v1/agents/:agent_type", h.GetAgent)
	e.PUT("/v1/agents/:agent_type", h.UpdateAgent)
	e.POST("/v1/agents/reload", h.ReloadAgents)
	e.GET("/v1/routing/stats", h.RoutingStats)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
