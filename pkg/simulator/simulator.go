package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/ocpp"
)

// Config carries the simulator settings.
type Config struct {
	// ServerURL is the websocket base URL of the central system, e.g.
	// ws://localhost:8080/ocpp. The charge point id is appended as the
	// last path segment.
	ServerURL string
	DeviceID  string
	Vendor    string
	Model     string

	HeartbeatInterval time.Duration
	CallTimeout       time.Duration
	RetryDelay        time.Duration
	MaxRetries        int
}

func DefaultConfig() Config {
	return Config{
		ServerURL:         "ws://localhost:8080/ocpp",
		DeviceID:          "EVSE001",
		Vendor:            "Demo",
		Model:             "Sim",
		HeartbeatInterval: 30 * time.Second,
		CallTimeout:       10 * time.Second,
		RetryDelay:        5 * time.Second,
		MaxRetries:        10,
	}
}

// ChargePoint simulates one charge point: it boots, reports status, sends
// heartbeats and answers the commands a central system may issue.
type ChargePoint struct {
	cfg Config

	mu            sync.Mutex
	conn          net.Conn
	charging      bool
	transactionID int
	config        map[string]string
	nextUniqueID  int64
	pending       map[string]chan json.RawMessage
}

func New(cfg Config) *ChargePoint {
	return &ChargePoint{
		cfg:     cfg,
		config:  make(map[string]string),
		pending: make(map[string]chan json.RawMessage),
	}
}

// Run connects to the central system and speaks the protocol until the
// context is cancelled. Lost connections are retried with a fixed delay.
func (cp *ChargePoint) Run(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s", cp.cfg.ServerURL, cp.cfg.DeviceID)

	for attempt := 1; cp.cfg.MaxRetries == 0 || attempt <= cp.cfg.MaxRetries; attempt++ {
		log.Infof("simulator '%s' connecting to %s (attempt %d)", cp.cfg.DeviceID, url, attempt)

		err := cp.runSession(ctx, url)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warnf("simulator '%s' session ended: %s, retrying in %s", cp.cfg.DeviceID, err.Error(), cp.cfg.RetryDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cp.cfg.RetryDelay):
		}
	}

	return errors.New("failed to connect to the central system after all retries")
}

func (cp *ChargePoint) runSession(ctx context.Context, url string) error {
	dialer := ws.Dialer{
		Protocols: []string{ocpp.SubProtocol},
	}

	conn, _, _, err := dialer.Dial(ctx, url)
	if err != nil {
		return errors.Wrap(err, "dial failed")
	}
	defer conn.Close()

	cp.mu.Lock()
	cp.conn = conn
	cp.mu.Unlock()
	defer func() {
		cp.mu.Lock()
		cp.conn = nil
		cp.mu.Unlock()
	}()

	log.Infof("simulator '%s' connected", cp.cfg.DeviceID)

	readErr := make(chan error, 1)
	go func() { readErr <- cp.readLoop(conn) }()

	if err := cp.bootSequence(); err != nil {
		return err
	}

	ticker := time.NewTicker(cp.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			cp.failPending()
			return err
		case <-ticker.C:
			var conf ocpp.HeartbeatConfirmation
			if err := cp.call(ocpp.ActionHeartbeat, &ocpp.HeartbeatRequest{}, &conf); err != nil {
				log.Warnf("simulator '%s' heartbeat failed: %s", cp.cfg.DeviceID, err.Error())
			}
		}
	}
}

// bootSequence performs the handshake a charge point runs after power on:
// boot notification followed by an initial status report.
func (cp *ChargePoint) bootSequence() error {
	var boot ocpp.BootNotificationConfirmation
	err := cp.call(ocpp.ActionBootNotification, &ocpp.BootNotificationRequest{
		ChargePointVendor: cp.cfg.Vendor,
		ChargePointModel:  cp.cfg.Model,
	}, &boot)
	if err != nil {
		return errors.Wrap(err, "boot notification failed")
	}
	log.Infof("simulator '%s' registered: status=%s interval=%d", cp.cfg.DeviceID, boot.Status, boot.Interval)

	return cp.sendStatus("Available", "NoError")
}

func (cp *ChargePoint) sendStatus(status, errorCode string) error {
	var conf ocpp.StatusNotificationConfirmation
	return cp.call(ocpp.ActionStatusNotification, &ocpp.StatusNotificationRequest{
		ConnectorID: 1,
		ErrorCode:   errorCode,
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}, &conf)
}

func (cp *ChargePoint) readLoop(conn net.Conn) error {
	for {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			return errors.Wrap(err, "read failed")
		}

		msgType, msg, err := ocpp.UnmarshalMessage(data)
		if err != nil {
			log.Warnf("simulator '%s' dropping malformed message: %s", cp.cfg.DeviceID, err.Error())
			continue
		}

		switch msgType {
		case ocpp.MessageTypeCall:
			callMsg, err := ocpp.MustCallMessage(msg)
			if err != nil {
				continue
			}
			// Command handlers may issue their own calls and must not
			// block the reader.
			go cp.handleCall(callMsg)
		case ocpp.MessageTypeCallResult:
			resultMsg, err := ocpp.MustCallResultMessage(msg)
			if err != nil {
				continue
			}
			cp.completePending(resultMsg.UniqueID, resultMsg.Payload)
		case ocpp.MessageTypeCallError:
			errorMsg, err := ocpp.MustCallErrorMessage(msg)
			if err != nil {
				continue
			}
			log.Warnf("simulator '%s' call '%s' rejected: %s", cp.cfg.DeviceID, errorMsg.UniqueID, errorMsg.ErrorCode)
			cp.completePending(errorMsg.UniqueID, nil)
		}
	}
}

// call sends one command to the central system and decodes the result.
func (cp *ChargePoint) call(action ocpp.Action, payload, result interface{}) error {
	resultCh := make(chan json.RawMessage, 1)

	cp.mu.Lock()
	if cp.conn == nil {
		cp.mu.Unlock()
		return errors.New("not connected")
	}
	cp.nextUniqueID++
	uniqueID := fmt.Sprintf("%s-sim-%d", cp.cfg.DeviceID, cp.nextUniqueID)
	cp.pending[uniqueID] = resultCh
	cp.mu.Unlock()

	data, err := ocpp.MarshalNewCallMessage(uniqueID, action, payload)
	if err == nil {
		err = cp.write(data)
	}
	if err != nil {
		cp.mu.Lock()
		delete(cp.pending, uniqueID)
		cp.mu.Unlock()
		return err
	}

	select {
	case payload := <-resultCh:
		if result != nil && len(payload) > 0 {
			return json.Unmarshal(payload, result)
		}
		return nil
	case <-time.After(cp.cfg.CallTimeout):
		cp.mu.Lock()
		delete(cp.pending, uniqueID)
		cp.mu.Unlock()
		return errors.Errorf("timed out waiting for %s result", action)
	}
}

func (cp *ChargePoint) completePending(uniqueID string, payload json.RawMessage) {
	cp.mu.Lock()
	resultCh, ok := cp.pending[uniqueID]
	if ok {
		delete(cp.pending, uniqueID)
	}
	cp.mu.Unlock()

	if !ok {
		log.Warnf("simulator '%s' dropped result with unmatched unique id '%s'", cp.cfg.DeviceID, uniqueID)
		return
	}
	resultCh <- payload
}

func (cp *ChargePoint) failPending() {
	cp.mu.Lock()
	pending := cp.pending
	cp.pending = make(map[string]chan json.RawMessage)
	cp.mu.Unlock()

	for _, ch := range pending {
		ch <- nil
	}
}

// write serializes frame writes, the reader and command handlers share
// the connection.
func (cp *ChargePoint) write(data []byte) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.conn == nil {
		return errors.New("not connected")
	}
	return wsutil.WriteClientText(cp.conn, data)
}
