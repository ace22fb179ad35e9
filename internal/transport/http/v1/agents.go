package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/akillionvoice/callcore/internal/domain"
)

// ListAgents lists all agent profiles.
// GET /v1/agents
func (h *Handler) ListAgents(c echo.Context) error {
	agents := h.service.ListAgents()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":  len(agents),
		"agents": agents,
	})
}

// GetAgent returns one agent profile.
// GET /v1/agents/:agent_type
func (h *Handler) GetAgent(c echo.Context) error {
	agentType := c.Param("agent_type")

	profile, err := h.service.GetAgent(agentType)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "agent not found"})
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateAgent applies a partial update to an agent profile.
// PUT /v1/agents/:agent_type
func (h *Handler) UpdateAgent(c echo.Context) error {
	ctx := c.Request().Context()
	agentType := c.Param("agent_type")

	var update domain.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.service.UpdateAgent(ctx, agentType, &update); err != nil {
		if strings.Contains(err.Error(), "blocked by policy") {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "agent not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	profile, err := h.service.GetAgent(agentType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, profile)
}

// ReloadAgents swaps in a fresh directory snapshot.
// POST /v1/agents/reload
func (h *Handler) ReloadAgents(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.service.ReloadDirectory(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}

// RoutingStats describes the loaded agent directory.
// GET /v1/routing/stats
func (h *Handler) RoutingStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.RoutingStats())
}
