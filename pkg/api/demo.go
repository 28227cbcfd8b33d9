package api

import (
	"net/http"

	"github.com/labstack/echo"

	"github.com/Lyadalachanchu/voice4evs/pkg/scenario"
)

func (h *Handler) handleTriggerScenario(c echo.Context) error {
	kind := c.Param("scenario")
	deviceID := c.Param("id")

	if err := h.ctrl.TriggerScenario(actor(c), kind, deviceID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"scenario": kind,
		"deviceId": deviceID,
		"status":   "active",
	})
}

func (h *Handler) handleClearScenarios(c echo.Context) error {
	h.ctrl.ClearScenario(actor(c), "")
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) handleClearScenario(c echo.Context) error {
	h.ctrl.ClearScenario(actor(c), c.Param("id"))
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) handleFetchScenarios(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"scenarios": scenario.Descriptions(),
		"active":    h.ctrl.Scenarios().ActiveScenarios(),
	})
}

func (h *Handler) handleScenarioProgress(c echo.Context) error {
	progress := h.ctrl.Scenarios().ProgressFor(c.Param("id"))
	return c.JSON(http.StatusOK, progress)
}

func (h *Handler) handleResolutionSteps(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"scenario": scenario.KindProfileMismatch.String(),
		"steps":    scenario.ResolutionSteps(),
	})
}
