package simulator

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/ocpp"
)

func (cp *ChargePoint) handleCall(msg *ocpp.CallMessage) {
	switch msg.Action {
	case ocpp.ActionReset:
		cp.handleReset(msg)
	case ocpp.ActionChangeAvailability:
		cp.handleChangeAvailability(msg)
	case ocpp.ActionChangeConfiguration:
		cp.handleChangeConfiguration(msg)
	case ocpp.ActionRemoteStartTransaction:
		cp.handleRemoteStart(msg)
	case ocpp.ActionRemoteStopTransaction:
		cp.handleRemoteStop(msg)
	case ocpp.ActionUnlockConnector:
		cp.handleUnlockConnector(msg)
	default:
		cp.respondError(msg.UniqueID, ocpp.ErrCodeNotImplemented, "action is not supported")
	}
}

func (cp *ChargePoint) handleReset(msg *ocpp.CallMessage) {
	var req ocpp.ResetRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		cp.respondError(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
		return
	}

	log.Infof("simulator '%s' received %s reset", cp.cfg.DeviceID, req.Type)
	cp.respond(msg.UniqueID, &ocpp.ResetConfirmation{Status: "Accepted"})

	// A real device reboots here. Acknowledge first, then replay the
	// power-on handshake after a short delay.
	time.Sleep(time.Second)

	cp.mu.Lock()
	cp.charging = false
	cp.mu.Unlock()

	if err := cp.bootSequence(); err != nil {
		log.Warnf("simulator '%s' reboot handshake failed: %s", cp.cfg.DeviceID, err.Error())
	}
}

func (cp *ChargePoint) handleChangeAvailability(msg *ocpp.CallMessage) {
	var req ocpp.ChangeAvailabilityRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		cp.respondError(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
		return
	}

	log.Infof("simulator '%s' availability change: %s", cp.cfg.DeviceID, req.Type)
	cp.respond(msg.UniqueID, &ocpp.ChangeAvailabilityConfirmation{Status: "Accepted"})

	status := "Available"
	if req.Type == ocpp.AvailabilityTypeInoperative {
		status = "Unavailable"
	}
	if err := cp.sendStatus(status, "NoError"); err != nil {
		log.Warnf("simulator '%s' status update failed: %s", cp.cfg.DeviceID, err.Error())
	}
}

func (cp *ChargePoint) handleChangeConfiguration(msg *ocpp.CallMessage) {
	var req ocpp.ChangeConfigurationRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		cp.respondError(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
		return
	}

	cp.mu.Lock()
	cp.config[req.Key] = req.Value
	cp.mu.Unlock()

	log.Infof("simulator '%s' configuration changed: %s=%s", cp.cfg.DeviceID, req.Key, req.Value)
	cp.respond(msg.UniqueID, &ocpp.ChangeConfigurationConfirmation{Status: "Accepted"})
}

func (cp *ChargePoint) handleRemoteStart(msg *ocpp.CallMessage) {
	var req ocpp.RemoteStartTransactionRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		cp.respondError(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
		return
	}

	log.Infof("simulator '%s' remote start for tag '%s'", cp.cfg.DeviceID, req.IDTag)
	cp.respond(msg.UniqueID, &ocpp.RemoteStartTransactionConfirmation{Status: "Accepted"})

	connectorID := 1
	if req.ConnectorID != nil {
		connectorID = *req.ConnectorID
	}

	var conf ocpp.StartTransactionConfirmation
	err := cp.call(ocpp.ActionStartTransaction, &ocpp.StartTransactionRequest{
		ConnectorID: connectorID,
		IDTag:       req.IDTag,
		MeterStart:  0,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}, &conf)
	if err != nil {
		log.Warnf("simulator '%s' start transaction failed: %s", cp.cfg.DeviceID, err.Error())
		return
	}

	cp.mu.Lock()
	cp.charging = true
	cp.transactionID = conf.TransactionID
	cp.mu.Unlock()

	if err := cp.sendStatus("Charging", "NoError"); err != nil {
		log.Warnf("simulator '%s' status update failed: %s", cp.cfg.DeviceID, err.Error())
	}
}

func (cp *ChargePoint) handleRemoteStop(msg *ocpp.CallMessage) {
	var req ocpp.RemoteStopTransactionRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		cp.respondError(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
		return
	}

	log.Infof("simulator '%s' remote stop for transaction %d", cp.cfg.DeviceID, req.TransactionID)
	cp.respond(msg.UniqueID, &ocpp.RemoteStopTransactionConfirmation{Status: "Accepted"})

	cp.mu.Lock()
	charging := cp.charging
	cp.charging = false
	cp.mu.Unlock()

	if !charging {
		return
	}

	var conf ocpp.StopTransactionConfirmation
	err := cp.call(ocpp.ActionStopTransaction, &ocpp.StopTransactionRequest{
		MeterStop:     1000,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		TransactionID: req.TransactionID,
	}, &conf)
	if err != nil {
		log.Warnf("simulator '%s' stop transaction failed: %s", cp.cfg.DeviceID, err.Error())
	}

	if err := cp.sendStatus("Available", "NoError"); err != nil {
		log.Warnf("simulator '%s' status update failed: %s", cp.cfg.DeviceID, err.Error())
	}
}

func (cp *ChargePoint) handleUnlockConnector(msg *ocpp.CallMessage) {
	var req ocpp.UnlockConnectorRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		cp.respondError(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
		return
	}

	log.Infof("simulator '%s' unlocking connector %d", cp.cfg.DeviceID, req.ConnectorID)
	cp.respond(msg.UniqueID, &ocpp.UnlockConnectorConfirmation{Status: "Unlocked"})

	if err := cp.sendStatus("Available", "NoError"); err != nil {
		log.Warnf("simulator '%s' status update failed: %s", cp.cfg.DeviceID, err.Error())
	}
}

func (cp *ChargePoint) respond(uniqueID string, payload interface{}) {
	data, err := ocpp.MarshalNewCallResultMessage(uniqueID, payload)
	if err != nil {
		log.Errorf("simulator '%s' failed to marshal result: %s", cp.cfg.DeviceID, err.Error())
		return
	}
	if err := cp.write(data); err != nil {
		log.Warnf("simulator '%s' failed to send result: %s", cp.cfg.DeviceID, err.Error())
	}
}

func (cp *ChargePoint) respondError(uniqueID string, code ocpp.ErrorCode, description string) {
	data, err := ocpp.MarshalNewCallErrorMessage(uniqueID, code, description, nil)
	if err != nil {
		log.Errorf("simulator '%s' failed to marshal call error: %s", cp.cfg.DeviceID, err.Error())
		return
	}
	if err := cp.write(data); err != nil {
		log.Warnf("simulator '%s' failed to send call error: %s", cp.cfg.DeviceID, err.Error())
	}
}
