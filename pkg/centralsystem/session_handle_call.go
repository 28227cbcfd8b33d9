package centralsystem

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/ocpp"
)

func (sess *Session) dispatchCall(msg *ocpp.CallMessage) ([]byte, Flag, error) {
	switch msg.Action {
	case ocpp.ActionBootNotification:
		return sess.handleBootNotification(msg)
	case ocpp.ActionHeartbeat:
		return sess.handleHeartbeat(msg)
	case ocpp.ActionStatusNotification:
		return sess.handleStatusNotification(msg)
	case ocpp.ActionMeterValues:
		return sess.handleMeterValues(msg)
	case ocpp.ActionAuthorize:
		return sess.handleAuthorize(msg)
	case ocpp.ActionStartTransaction:
		return sess.handleStartTransaction(msg)
	case ocpp.ActionStopTransaction:
		return sess.handleStopTransaction(msg)
	}

	// Remaining actions are commands the central system sends, a charge
	// point must not call them.
	return sess.callErrorMessage(msg.UniqueID, ocpp.ErrCodeNotImplemented,
		"action is not implemented for charge point initiated calls")
}

func (sess *Session) handleBootNotification(msg *ocpp.CallMessage) ([]byte, Flag, error) {
	var req ocpp.BootNotificationRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return sess.callErrorMessage(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
	}

	log.Infof("charge point '%s' booted: vendor='%s' model='%s'",
		sess.deviceID, req.ChargePointVendor, req.ChargePointModel)

	if err := sess.ctrl.store.Heartbeats().Touch(sess.deviceID); err != nil {
		log.Errorf("failed to touch heartbeat for '%s': %s", sess.deviceID, err.Error())
	}

	return sess.callResultMessage(msg.UniqueID, &ocpp.BootNotificationConfirmation{
		Status:      ocpp.RegistrationStatusAccepted,
		CurrentTime: time.Now().UTC().Format(time.RFC3339),
		Interval:    sess.ctrl.opts.HeartbeatInterval,
	})
}

func (sess *Session) handleHeartbeat(msg *ocpp.CallMessage) ([]byte, Flag, error) {
	if err := sess.ctrl.store.Heartbeats().Touch(sess.deviceID); err != nil {
		log.Errorf("failed to touch heartbeat for '%s': %s", sess.deviceID, err.Error())
	}

	return sess.callResultMessage(msg.UniqueID, &ocpp.HeartbeatConfirmation{
		CurrentTime: time.Now().UTC().Format(time.RFC3339),
	})
}

func (sess *Session) handleStatusNotification(msg *ocpp.CallMessage) ([]byte, Flag, error) {
	var req ocpp.StatusNotificationRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return sess.callErrorMessage(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
	}

	status := req.Status
	errorCode := req.ErrorCode

	// An active fault scenario masks the reported status so the stored
	// view shows what an operator would observe on a misbehaving device.
	if override, ok := sess.ctrl.scenarios.StatusOverride(sess.deviceID); ok {
		log.Debugf("status for '%s' overridden: reported='%s' stored='%s'",
			sess.deviceID, status, override.Status)
		status = string(override.Status)
		errorCode = override.ErrorCode
	}

	err := sess.ctrl.store.Status().Set(&model.Status{
		DeviceID:    sess.deviceID,
		ConnectorID: req.ConnectorID,
		Status:      model.ChargePointStatus(status),
		ErrorCode:   errorCode,
		UpdatedAt:   time.Now().Round(time.Second).UTC(),
	})
	if err != nil {
		log.Errorf("failed to store status for '%s': %s", sess.deviceID, err.Error())
	}

	sess.ctrl.publishDeviceStatus(sess.deviceID, status)

	return sess.callResultMessage(msg.UniqueID, &ocpp.StatusNotificationConfirmation{})
}

func (sess *Session) handleMeterValues(msg *ocpp.CallMessage) ([]byte, Flag, error) {
	var req ocpp.MeterValuesRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return sess.callErrorMessage(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
	}

	log.Debugf("charge point '%s' reported %d meter value(s) for connector %d",
		sess.deviceID, len(req.MeterValue), req.ConnectorID)

	return sess.callResultMessage(msg.UniqueID, &ocpp.MeterValuesConfirmation{})
}

func (sess *Session) handleAuthorize(msg *ocpp.CallMessage) ([]byte, Flag, error) {
	var req ocpp.AuthorizeRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return sess.callErrorMessage(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
	}

	status := ocpp.AuthorizationStatusInvalid

	if sess.ctrl.scenarios.ForceAuthFailure(sess.deviceID) {
		log.Infof("authorization for tag '%s' on '%s' rejected by active fault scenario",
			req.IDTag, sess.deviceID)
	} else {
		accepted, err := sess.ctrl.store.Authorizations().IsAccepted(req.IDTag)
		if err != nil {
			log.Errorf("failed to look up id tag '%s': %s", req.IDTag, err.Error())
		}
		if accepted {
			status = ocpp.AuthorizationStatusAccepted
		}
	}

	return sess.callResultMessage(msg.UniqueID, &ocpp.AuthorizeConfirmation{
		IDTagInfo: ocpp.IdTagInfo{Status: status},
	})
}

func (sess *Session) handleStartTransaction(msg *ocpp.CallMessage) ([]byte, Flag, error) {
	var req ocpp.StartTransactionRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return sess.callErrorMessage(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
	}

	transactionID := sess.ctrl.allocateTransactionID()
	log.Infof("charge point '%s' started transaction %d on connector %d",
		sess.deviceID, transactionID, req.ConnectorID)

	return sess.callResultMessage(msg.UniqueID, &ocpp.StartTransactionConfirmation{
		TransactionID: transactionID,
		IDTagInfo:     ocpp.IdTagInfo{Status: ocpp.AuthorizationStatusAccepted},
	})
}

func (sess *Session) handleStopTransaction(msg *ocpp.CallMessage) ([]byte, Flag, error) {
	var req ocpp.StopTransactionRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return sess.callErrorMessage(msg.UniqueID, ocpp.ErrCodeFormationViolation, err.Error())
	}

	log.Infof("charge point '%s' stopped transaction %d", sess.deviceID, req.TransactionID)

	return sess.callResultMessage(msg.UniqueID, &ocpp.StopTransactionConfirmation{
		IDTagInfo: &ocpp.IdTagInfo{Status: ocpp.AuthorizationStatusAccepted},
	})
}
