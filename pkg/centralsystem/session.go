package centralsystem

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/ocpp"
)

type Flag int

const (
	FlagContinue Flag = iota
	FlagCloseGracefully
	FlagTerminate
)

type response struct {
	Flag Flag
	Data []byte
}

// callOutcome completes a pending correlation handle: either the result
// payload of a 3-element response or an error (call error frame, timeout,
// connection closed).
type callOutcome struct {
	payload json.RawMessage
	err     error
}

// Session is the server side of one charge point connection. It frames
// outbound commands with a unique id, matches inbound responses to
// outstanding commands and dispatches inbound device-initiated calls to
// handlers. At most one live session exists per device id at a time.
type Session struct {
	sync.Mutex
	ctrl          *Controller
	deviceID      string
	conn          net.Conn
	lastMessageAt time.Time
	wsTerminateCh chan<- struct{}
	wsCloseCh     chan struct{}
	wsOutboxCh    chan *response
	closeOnce     sync.Once
	closed        bool
	nextUniqueID  int64
	pending       map[string]chan callOutcome
}

// DeviceID returns the device identity of the session.
func (sess *Session) DeviceID() string {
	return sess.deviceID
}

// Close is called when the websocket handler method is exiting, e.g. the
// connection is closed. In-flight correlations are completed with a
// connection-closed error rather than left pending forever.
func (sess *Session) Close() {
	sess.Lock()
	sess.closed = true
	pending := sess.pending
	sess.pending = make(map[string]chan callOutcome)
	sess.Unlock()

	for uniqueID, ch := range pending {
		log.Warnf("session: completing pending call '%s' with connection closed", uniqueID)
		ch <- callOutcome{err: NewNotConnectedError(sess.deviceID)}
	}

	sess.ctrl.unregisterSession(sess)
}

// HandleMessage is called by the inbox worker when data is received from
// the connected charge point.
func (sess *Session) HandleMessage(data []byte) ([]byte, Flag, error) {
	log.Debugf("session [%s] handles message '%s'", sess.deviceID, string(data))

	sess.Lock()
	sess.lastMessageAt = time.Now().Round(time.Second).UTC()
	sess.Unlock()

	msgType, msg, err := ocpp.UnmarshalMessage(data)
	if err != nil && ocpp.IsUnknownActionError(err) {
		// An unknown action is a client error, never fatal: answer with a
		// NotImplemented call error and keep the connection.
		callMsg, _ := ocpp.MustCallMessage(msg)
		return sess.callErrorMessage(callMsg.UniqueID, ocpp.ErrCodeNotImplemented, err.Error())
	}
	if err != nil {
		return sess.terminateAndLogError("invalid payload", err)
	}

	switch msgType {
	case ocpp.MessageTypeCall:
		callMsg, err := ocpp.MustCallMessage(msg)
		if err != nil {
			return sess.terminateAndLogError("call message expected", err)
		}
		return sess.dispatchCall(callMsg)
	case ocpp.MessageTypeCallResult:
		resultMsg, err := ocpp.MustCallResultMessage(msg)
		if err != nil {
			return sess.terminateAndLogError("call result message expected", err)
		}
		sess.completePending(resultMsg.UniqueID, callOutcome{payload: resultMsg.Payload})
		return sess.continueWithoutMessage()
	case ocpp.MessageTypeCallError:
		errorMsg, err := ocpp.MustCallErrorMessage(msg)
		if err != nil {
			return sess.terminateAndLogError("call error message expected", err)
		}
		sess.completePending(errorMsg.UniqueID, callOutcome{
			err: ocpp.NewCallError(errorMsg.ErrorCode, errorMsg.ErrorDescription),
		})
		return sess.continueWithoutMessage()
	}

	return sess.terminateAndLog("unhandled message")
}

// Call sends an outbound command and returns the device's result payload.
// The unique id is unused by any other in-flight call on this session. The
// wait is bounded by the caller's context; the session itself imposes no
// timeout of its own.
func (sess *Session) Call(ctx context.Context, action ocpp.Action, payload interface{}) (json.RawMessage, error) {
	resultCh := make(chan callOutcome, 1)

	sess.Lock()
	if sess.closed {
		sess.Unlock()
		return nil, NewNotConnectedError(sess.deviceID)
	}
	uniqueID := fmt.Sprintf("%s-%d", sess.deviceID, sess.nextUniqueID)
	sess.nextUniqueID++
	sess.pending[uniqueID] = resultCh
	sess.Unlock()

	out, err := ocpp.MarshalNewCallMessage(uniqueID, action, payload)
	if err != nil {
		sess.popPending(uniqueID)
		return nil, err
	}

	if !sess.pushBackMessage(FlagContinue, out) {
		sess.popPending(uniqueID)
		return nil, NewTransportError(sess.deviceID, "outbox buffer is full")
	}

	select {
	case <-ctx.Done():
		sess.popPending(uniqueID)
		return nil, NewTransportError(sess.deviceID, "timed out waiting for device response")
	case outcome := <-resultCh:
		return outcome.payload, outcome.err
	}
}

// completePending resolves an inbound response to its outstanding call. An
// unmatched unique id is dropped and logged, never fatal.
func (sess *Session) completePending(uniqueID string, outcome callOutcome) {
	sess.Lock()
	resultCh, ok := sess.pending[uniqueID]
	if ok {
		delete(sess.pending, uniqueID)
	}
	sess.Unlock()

	if !ok {
		log.Warnf("session [%s] dropped response with unmatched unique id '%s'", sess.deviceID, uniqueID)
		return
	}

	resultCh <- outcome
}

func (sess *Session) popPending(uniqueID string) {
	sess.Lock()
	delete(sess.pending, uniqueID)
	sess.Unlock()
}

func (sess *Session) terminateAndLog(message string) ([]byte, Flag, error) {
	log.Errorf("session [%s] terminates with message: %s", sess.deviceID, message)
	sess.pushBackMessage(FlagTerminate, nil)
	return nil, FlagTerminate, nil
}

func (sess *Session) terminateAndLogError(message string, err error) ([]byte, Flag, error) {
	log.Errorf("session [%s] terminates with message and error: %s: %s", sess.deviceID, message, err.Error())
	sess.pushBackMessage(FlagTerminate, nil)
	return nil, FlagTerminate, nil
}

func (sess *Session) callResultMessage(uniqueID string, payload interface{}) ([]byte, Flag, error) {
	out, err := ocpp.MarshalNewCallResultMessage(uniqueID, payload)
	// This error should happen never! If it happens log an urgent error
	// and terminate the websocket session for safety.
	if err != nil {
		return sess.terminateAndLogError("could not marshal message", err)
	}
	sess.pushBackMessage(FlagContinue, out)
	return out, FlagContinue, nil
}

func (sess *Session) callErrorMessage(uniqueID string, code ocpp.ErrorCode, description string) ([]byte, Flag, error) {
	out, err := ocpp.MarshalNewCallErrorMessage(uniqueID, code, description, nil)
	// This error should happen never! If it happens log an urgent error
	// and terminate the websocket session for safety.
	if err != nil {
		return sess.terminateAndLogError("could not marshal message", err)
	}
	sess.pushBackMessage(FlagContinue, out)
	return out, FlagContinue, nil
}

func (sess *Session) continueWithoutMessage() ([]byte, Flag, error) {
	return nil, FlagContinue, nil
}

func (sess *Session) pushBackMessage(flag Flag, data []byte) bool {
	select {
	case sess.wsOutboxCh <- newResponse(flag, data):
		return true
	default:
		return false // Buffer is full
	}
}

// terminate asks the transport workers to shut the connection down. Safe
// to call more than once.
func (sess *Session) terminate() {
	sess.closeOnce.Do(func() {
		close(sess.wsCloseCh)
	})
}

func newResponse(flag Flag, data []byte) *response {
	r := &response{
		Flag: flag,
	}
	if data != nil {
		r.Data = make([]byte, len(data))
		copy(r.Data, data)
	}
	return r
}
