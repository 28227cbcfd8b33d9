package api

import (
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/centralsystem"
)

// Handler contains all properties to serve the API
type Handler struct {
	nc   *nats.Conn
	ctrl *centralsystem.Controller
}

// NewHandler create a new API handler
func NewHandler(nc *nats.Conn, ctrl *centralsystem.Controller) *Handler {
	return &Handler{
		nc:   nc,
		ctrl: ctrl,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")

	api.GET("/status", h.handleGetStatus)
	api.GET("/status/:id", h.handleGetDeviceStatus)
	api.GET("/power-limits", h.handleFetchPowerLimits)

	api.POST("/commands/reset/:id", h.handleReset)
	api.POST("/commands/change_availability/:id", h.handleChangeAvailability)
	api.POST("/commands/change_configuration/:id", h.handleChangeConfiguration)
	api.POST("/commands/power_limit/:id", h.handlePowerLimit)
	api.POST("/commands/remote_start/:id", h.handleRemoteStart)
	api.POST("/commands/remote_stop/:id", h.handleRemoteStop)
	api.POST("/commands/unlock_connector/:id", h.handleUnlockConnector)
	api.POST("/commands/send_local_list", h.handleSendLocalList)

	api.POST("/demo/trigger/:scenario/:id", h.handleTriggerScenario)
	api.POST("/demo/clear", h.handleClearScenarios)
	api.POST("/demo/clear/:id", h.handleClearScenario)
	api.GET("/demo/scenarios", h.handleFetchScenarios)
	api.GET("/demo/progress/:id", h.handleScenarioProgress)
	api.GET("/demo/resolution_steps", h.handleResolutionSteps)

	api.GET("/audit", h.handleFetchAudit)
	api.GET("/audit/:id", h.handleFetchDeviceAudit)

	api.Any("/realtime-events", h.realtimeEventsHandler())
}

// actor identifies the command issuer for the audit trail. Callers may
// override the default with a header.
func actor(c echo.Context) string {
	if a := c.Request().Header.Get("X-Actor"); a != "" {
		return a
	}
	return "api"
}
