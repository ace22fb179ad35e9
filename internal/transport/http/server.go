// Package http provides the HTTP server for the call-orchestration core.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/akillionvoice/callcore/internal/service"
	v1 "github.com/akillionvoice/callcore/internal/transport/http/v1"
	"github.com/akillionvoice/callcore/internal/transport/ws"
)

// NewServer creates and configures the HTTP server. The telephony gateway
// drives the /v1/calls routes; dashboards consume /ws/events. feed may be
// nil when the event feed is disabled.
func NewServer(svc *service.Service, feed *ws.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	if feed != nil {
		e.GET("/ws/events", feed.HandleFeed)
	}

	return e
}
