package api

import (
	"net/http"

	"github.com/labstack/echo"

	"github.com/Lyadalachanchu/voice4evs/pkg/api/resource"
)

func (h *Handler) handleReset(c echo.Context) error {
	r := &resource.ResetCommandResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResource{Error: err.Error()})
	}

	res, err := h.ctrl.Reset(actor(c), c.Param("id"), r.Type)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) handleChangeAvailability(c echo.Context) error {
	r := &resource.ChangeAvailabilityCommandResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResource{Error: err.Error()})
	}

	res, err := h.ctrl.SetAvailability(actor(c), c.Param("id"), r.ConnectorID, r.Type)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) handleChangeConfiguration(c echo.Context) error {
	r := &resource.ChangeConfigurationCommandResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResource{Error: err.Error()})
	}

	res, err := h.ctrl.SetConfiguration(actor(c), c.Param("id"), r.Key, r.Value)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) handlePowerLimit(c echo.Context) error {
	r := &resource.PowerLimitCommandResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResource{Error: err.Error()})
	}

	res, err := h.ctrl.SetPowerLimit(actor(c), c.Param("id"), r.ConnectorID, r.LimitKW)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) handleRemoteStart(c echo.Context) error {
	r := &resource.RemoteStartCommandResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResource{Error: err.Error()})
	}

	res, err := h.ctrl.RemoteStart(actor(c), c.Param("id"), r.IDTag, r.ConnectorID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) handleRemoteStop(c echo.Context) error {
	r := &resource.RemoteStopCommandResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResource{Error: err.Error()})
	}

	res, err := h.ctrl.RemoteStop(actor(c), c.Param("id"), r.TransactionID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) handleUnlockConnector(c echo.Context) error {
	r := &resource.UnlockConnectorCommandResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResource{Error: err.Error()})
	}

	res, err := h.ctrl.Unlock(actor(c), c.Param("id"), r.ConnectorID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *Handler) handleSendLocalList(c echo.Context) error {
	r := &resource.SendLocalListCommandResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResource{Error: err.Error()})
	}

	for _, idTag := range r.IDTags {
		if err := h.ctrl.Whitelist(actor(c), idTag); err != nil {
			return writeError(c, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]int{"accepted": len(r.IDTags)})
}
