package centralsystem

import (
	"net/http"

	"github.com/gobwas/ws"
	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/ocpp"
)

// Handler serves the charge point facing websocket endpoint.
type Handler struct {
	ctrl *Controller
}

// NewHandler creates a new websocket handler
func NewHandler(ctrl *Controller) *Handler {
	return &Handler{
		ctrl: ctrl,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register central system routes")
	e.Any("/ocpp/:id", h.chargePointHandler())
}

func (h *Handler) chargePointHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		deviceID := c.Param("id")
		if deviceID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "charge point id is required")
		}

		upgrader := ws.HTTPUpgrader{
			Protocol: func(proto string) bool {
				return proto == ocpp.SubProtocol
			},
		}

		conn, _, _, err := upgrader.Upgrade(c.Request(), c.Response())
		if err != nil {
			return err
		}
		defer conn.Close()

		terminateCh := make(chan struct{})

		sess := h.ctrl.NewSession(deviceID, conn, terminateCh)
		defer sess.Close()

		<-terminateCh

		log.Debugf("handler exit charge point handler func for '%s'", deviceID)
		return nil
	}
}
