package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/api/resource"
)

const eventSubjectPrefix = "csms.v1.events."

// realtimeEventsHandler forwards broker events to a websocket client. The
// endpoint requires a broker connection; without one it answers 503.
func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.nc == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "event broker is not configured")
		}

		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		// Closed on the first write failure so the subscription gets torn
		// down when the client goes away.
		done := make(chan struct{})
		var once sync.Once
		closeDone := func() { once.Do(func() { close(done) }) }

		sub, err := h.nc.Subscribe(eventSubjectPrefix+">", func(msg *nats.Msg) {
			topic := strings.TrimPrefix(msg.Subject, eventSubjectPrefix)

			var details interface{}
			if err := json.Unmarshal(msg.Data, &details); err != nil {
				log.Warn("api: dropping malformed event: ", err)
				return
			}

			event := resource.NewRealtimeEvent(topic, details)
			out, _ := json.Marshal(event)
			if err := wsutil.WriteServerMessage(conn, ws.OpText, out); err != nil {
				log.Error("api: failed to send realtime event: ", err)
				closeDone()
			}
		})
		if err != nil {
			log.Error("api: failed to subscribe to events: ", err)
			return nil
		}
		defer sub.Unsubscribe()

		// Drain client frames so we notice the close handshake.
		go func() {
			for {
				if _, _, err := wsutil.ReadClientData(conn); err != nil {
					closeDone()
					return
				}
			}
		}()

		<-done
		return nil
	}
}
