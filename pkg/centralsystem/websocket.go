package centralsystem

import (
	"io"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	log "github.com/sirupsen/logrus"
)

func (sess *Session) inboxWorker() {
	// When the reader exits the connection is gone. Wake the outbox worker
	// so the handler goroutine gets terminated as well.
	defer sess.terminate()

	state := ws.StateServerSide
	ch := wsutil.ControlFrameHandler(sess.conn, state)

	r := &wsutil.Reader{
		Source:         sess.conn,
		State:          state,
		CheckUTF8:      true,
		OnIntermediate: ch,
	}

	for {
		h, err := r.NextFrame()
		if err != nil {
			log.Errorf("websocket read message error: %v", err)

			// We should not return the error because echo framework
			// doesn't expect an error at this stage. If you return an
			// error you will see hijacked messages on the console.
			return
		}

		// We received an operation control frame and handle it before
		// continuation.
		if h.OpCode.IsControl() {
			// Check for OpClose before handling the control frame. On
			// OpClose the socket was closed by the client. We can exit our
			// handler now.
			if h.OpCode == ws.OpClose {
				log.Infof("websocket connection for '%s' closed gracefully", sess.deviceID)
				return
			}

			// Handle the control frame
			if err = ch(h, r); err != nil {
				log.Errorf("websocket handles control frame error: %v", err)
				return
			}
			continue
		}

		// Read all data from websocket client
		req, err := io.ReadAll(r)
		if err != nil {
			log.Errorf("websocket read error: %v", err)
			return
		}

		// Handle the received data
		_, _, err = sess.HandleMessage(req)
		if err != nil {
			log.Errorf("websocket handle request error: %v", err)
			return
		}
	}
}

// outboxWorker drains the outbox buffer to the wire. It owns the
// terminate channel and closes it exactly once, when the session is done.
func (sess *Session) outboxWorker() {
	state := ws.StateServerSide
	w := wsutil.NewWriter(sess.conn, state, 0)

	defer close(sess.wsTerminateCh)

	for {
		select {
		case res := <-sess.wsOutboxCh:
			{
				log.Debugf("session [%s] has an outbox message with flag(%d): %s", sess.deviceID, res.Flag, string(res.Data))
				if done := webSocketWrite(sess.conn, w, state, res); done {
					return
				}
			}
		case <-sess.wsCloseCh:
			{
				log.Debugf("session [%s] outbox worker received stop signal", sess.deviceID)
				webSocketCloseGraceful(sess.conn, w, state)
				return
			}
		}
	}
}

func webSocketWrite(conn net.Conn, w *wsutil.Writer, state ws.State, res *response) bool {
	var err error

	if res.Data != nil {
		// Setup the writer with proper websocket frame settings.
		w.Reset(conn, state, ws.OpText)
		if _, err = w.Write(res.Data); err == nil {
			err = w.Flush()
		}
		if err != nil {
			log.Errorf("websocket write error: %s", err)
			return true
		}
	}

	if res.Flag == FlagCloseGracefully {
		webSocketCloseGraceful(conn, w, state)
		return true
	}
	return res.Flag == FlagTerminate
}

func webSocketCloseGraceful(conn net.Conn, w *wsutil.Writer, state ws.State) {
	log.Debug("websocket graceful close initiated")

	w.Reset(conn, state, ws.OpClose)

	// Write empty string
	var err error
	if _, err = w.Write([]byte("")); err == nil {
		err = w.Flush()
	}
	if err != nil {
		log.Errorf("websocket write error: %s", err)
	}
}
