package api

import (
	"net/http"

	"github.com/labstack/echo"

	"github.com/Lyadalachanchu/voice4evs/pkg/api/resource"
)

func (h *Handler) handleGetStatus(c echo.Context) error {
	report, err := h.ctrl.GetStatus("")
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, report)
}

func (h *Handler) handleGetDeviceStatus(c echo.Context) error {
	report, err := h.ctrl.GetStatus(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, report)
}

func (h *Handler) handleFetchPowerLimits(c echo.Context) error {
	m, err := h.ctrl.Store().PowerLimits().FetchAll()
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewPowerLimitList(m))
}
