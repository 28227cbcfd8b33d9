package api

import (
	"net/http"

	"github.com/labstack/echo"

	"github.com/Lyadalachanchu/voice4evs/pkg/api/resource"
)

func (h *Handler) handleFetchAudit(c echo.Context) error {
	m, err := h.ctrl.Store().Audit().FetchAll()
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewAuditList(m))
}

func (h *Handler) handleFetchDeviceAudit(c echo.Context) error {
	m, err := h.ctrl.Store().Audit().FindByDeviceID(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewAuditList(m))
}
