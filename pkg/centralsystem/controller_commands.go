package centralsystem

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Lyadalachanchu/voice4evs/pkg/guardrails"
	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/ocpp"
	"github.com/Lyadalachanchu/voice4evs/pkg/scenario"
)

// powerLimitConfigKey is the configuration key a power limit travels under
// on the wire. A connector scoped limit is suffixed with the connector id.
const powerLimitConfigKey = "PowerLimit"

// CommandResult carries the outcome of a command the device acknowledged.
type CommandResult struct {
	DeviceID string `json:"deviceId"`
	Action   string `json:"action"`
	Status   string `json:"status"`
}

// DeviceStatus is one row of the fleet status report.
type DeviceStatus struct {
	DeviceID      string     `json:"deviceId"`
	Connected     bool       `json:"connected"`
	ConnectorID   int        `json:"connectorId,omitempty"`
	Status        string     `json:"status,omitempty"`
	ErrorCode     string     `json:"errorCode,omitempty"`
	LastHeartbeat *time.Time `json:"lastHeartbeat,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// StatusReport is the answer to a fleet or single device status query.
type StatusReport struct {
	Devices   []DeviceStatus `json:"devices"`
	Connected int            `json:"connected"`
}

// GetStatus reports the stored view of one device, or of the whole fleet
// when deviceID is empty. The view is assembled from the state store and
// the registry; it never queries a device. Querying status counts as a
// diagnostic step for any fault scenario active on the queried devices.
func (ctrl *Controller) GetStatus(deviceID string) (*StatusReport, error) {
	statuses, err := ctrl.store.Status().FetchAll()
	if err != nil {
		return nil, err
	}
	heartbeats, err := ctrl.store.Heartbeats().FetchAll()
	if err != nil {
		return nil, err
	}

	// Collect every device id known from any source.
	ids := make(map[string]struct{})
	for id := range statuses {
		ids[id] = struct{}{}
	}
	for id := range heartbeats {
		ids[id] = struct{}{}
	}
	for _, id := range ctrl.registry.DeviceIDs() {
		ids[id] = struct{}{}
	}

	if deviceID != "" {
		if _, ok := ids[deviceID]; !ok {
			return nil, NewNotConnectedError(deviceID)
		}
		ids = map[string]struct{}{deviceID: {}}
	}

	report := &StatusReport{
		Devices:   make([]DeviceStatus, 0, len(ids)),
		Connected: ctrl.registry.Count(),
	}

	for id := range ids {
		row := DeviceStatus{DeviceID: id}
		_, row.Connected = ctrl.registry.Lookup(id)

		if st, ok := statuses[id]; ok {
			row.ConnectorID = st.ConnectorID
			row.Status = string(st.Status)
			row.ErrorCode = st.ErrorCode
			updatedAt := st.UpdatedAt
			row.UpdatedAt = &updatedAt
		}
		if override, ok := ctrl.scenarios.StatusOverride(id); ok {
			row.ConnectorID = override.ConnectorID
			row.Status = string(override.Status)
			row.ErrorCode = override.ErrorCode
		}
		if hb, ok := heartbeats[id]; ok {
			lastSeen := hb.LastSeen
			row.LastHeartbeat = &lastSeen
		}

		if _, active := ctrl.scenarios.ActiveKind(id); active {
			ctrl.scenarios.ObserveStatusQuery(id)
		}

		report.Devices = append(report.Devices, row)
	}

	sort.Slice(report.Devices, func(i, j int) bool {
		return report.Devices[i].DeviceID < report.Devices[j].DeviceID
	})

	return report, nil
}

// Reset asks a device to reboot. The kind must be Hard or Soft; a soft
// reset counts towards an active remediation on the device.
func (ctrl *Controller) Reset(actor, deviceID, kind string) (*CommandResult, error) {
	if kind != ocpp.ResetTypeHard && kind != ocpp.ResetTypeSoft {
		return nil, guardrails.NewValidationError("type", "must be Hard or Soft")
	}

	var conf ocpp.ResetConfirmation
	err := ctrl.call(deviceID, ocpp.ActionReset, &ocpp.ResetRequest{Type: kind}, &conf)
	if err != nil {
		return nil, err
	}

	ctrl.scenarios.ObserveReset(deviceID, kind)
	ctrl.audit(actor, deviceID, "reset", fmt.Sprintf("type=%s status=%s", kind, conf.Status))

	return ctrl.result(deviceID, ocpp.ActionReset, conf.Status), nil
}

// SetAvailability switches a connector (or the whole device when
// connectorID is nil) between Operative and Inoperative. Taking a stuck
// device out of service clears the fault, mirroring an operator
// escalation.
func (ctrl *Controller) SetAvailability(actor, deviceID string, connectorID *int, kind string) (*CommandResult, error) {
	if kind != ocpp.AvailabilityTypeOperative && kind != ocpp.AvailabilityTypeInoperative {
		return nil, guardrails.NewValidationError("type", "must be Operative or Inoperative")
	}

	var conf ocpp.ChangeAvailabilityConfirmation
	err := ctrl.call(deviceID, ocpp.ActionChangeAvailability, &ocpp.ChangeAvailabilityRequest{
		ConnectorID: connectorID,
		Type:        kind,
	}, &conf)
	if err != nil {
		return nil, err
	}

	ctrl.scenarios.ObserveAvailabilityChange(deviceID)
	ctrl.audit(actor, deviceID, "change_availability", fmt.Sprintf("type=%s status=%s", kind, conf.Status))

	return ctrl.result(deviceID, ocpp.ActionChangeAvailability, conf.Status), nil
}

// SetConfiguration writes one configuration key on a device. The key must
// be on the allowlist and the write must pass the configuration rate
// limit. A successful write is observed by the scenario engine: keys
// relevant to an active remediation update its checklist, last write wins.
func (ctrl *Controller) SetConfiguration(actor, deviceID, key, value string) (*CommandResult, error) {
	if err := ctrl.guard.AdmitConfiguration(deviceID, key); err != nil {
		return nil, err
	}

	var conf ocpp.ChangeConfigurationConfirmation
	err := ctrl.call(deviceID, ocpp.ActionChangeConfiguration, &ocpp.ChangeConfigurationRequest{
		Key:   key,
		Value: value,
	}, &conf)
	if err != nil {
		return nil, err
	}

	ctrl.scenarios.ObserveConfiguration(deviceID, key, value)
	ctrl.audit(actor, deviceID, "change_configuration", fmt.Sprintf("key=%s value=%s status=%s", key, value, conf.Status))

	return ctrl.result(deviceID, ocpp.ActionChangeConfiguration, conf.Status), nil
}

// SetPowerLimit applies a power limit in kW, device wide or for a single
// connector. The value must pass the range check and the power rate limit
// before anything touches the wire; only an acknowledged write reaches the
// store.
func (ctrl *Controller) SetPowerLimit(actor, deviceID string, connectorID *int, kw float64) (*CommandResult, error) {
	if err := ctrl.guard.AdmitPowerLimit(deviceID, kw); err != nil {
		return nil, err
	}

	key := powerLimitConfigKey
	if connectorID != nil {
		key = fmt.Sprintf("%s.%d", powerLimitConfigKey, *connectorID)
	}

	var conf ocpp.ChangeConfigurationConfirmation
	err := ctrl.call(deviceID, ocpp.ActionChangeConfiguration, &ocpp.ChangeConfigurationRequest{
		Key:   key,
		Value: strconv.FormatFloat(kw, 'f', -1, 64),
	}, &conf)
	if err != nil {
		return nil, err
	}

	if connectorID != nil {
		err = ctrl.store.PowerLimits().SetConnector(deviceID, *connectorID, kw)
	} else {
		err = ctrl.store.PowerLimits().SetDefault(deviceID, kw)
	}
	if err != nil {
		return nil, err
	}

	ctrl.audit(actor, deviceID, "set_power_limit", fmt.Sprintf("key=%s kw=%g status=%s", key, kw, conf.Status))

	return ctrl.result(deviceID, ocpp.ActionChangeConfiguration, conf.Status), nil
}

// RemoteStart asks a device to begin a charging session for the id tag.
func (ctrl *Controller) RemoteStart(actor, deviceID, idTag string, connectorID *int) (*CommandResult, error) {
	if idTag == "" {
		return nil, guardrails.NewValidationError("idTag", "must not be empty")
	}

	var conf ocpp.RemoteStartTransactionConfirmation
	err := ctrl.call(deviceID, ocpp.ActionRemoteStartTransaction, &ocpp.RemoteStartTransactionRequest{
		IDTag:       idTag,
		ConnectorID: connectorID,
	}, &conf)
	if err != nil {
		return nil, err
	}

	ctrl.audit(actor, deviceID, "remote_start", fmt.Sprintf("idTag=%s status=%s", idTag, conf.Status))

	return ctrl.result(deviceID, ocpp.ActionRemoteStartTransaction, conf.Status), nil
}

// RemoteStop asks a device to end a charging session. The command always
// goes to the wire; a stuck charging fault does not short circuit it, the
// fault merely keeps the stored status pinned regardless of the outcome.
func (ctrl *Controller) RemoteStop(actor, deviceID string, transactionID int) (*CommandResult, error) {
	var conf ocpp.RemoteStopTransactionConfirmation
	err := ctrl.call(deviceID, ocpp.ActionRemoteStopTransaction, &ocpp.RemoteStopTransactionRequest{
		TransactionID: transactionID,
	}, &conf)
	if err != nil {
		return nil, err
	}

	if ctrl.scenarios.SuppressStop(deviceID) {
		log.Infof("stop command for '%s' acknowledged but the session is stuck, status stays Charging", deviceID)
	}

	ctrl.audit(actor, deviceID, "remote_stop", fmt.Sprintf("transactionId=%d status=%s", transactionID, conf.Status))

	return ctrl.result(deviceID, ocpp.ActionRemoteStopTransaction, conf.Status), nil
}

// Unlock releases the cable lock on one connector.
func (ctrl *Controller) Unlock(actor, deviceID string, connectorID int) (*CommandResult, error) {
	if connectorID < 1 {
		return nil, guardrails.NewValidationError("connectorId", "must be a positive connector id")
	}

	var conf ocpp.UnlockConnectorConfirmation
	err := ctrl.call(deviceID, ocpp.ActionUnlockConnector, &ocpp.UnlockConnectorRequest{
		ConnectorID: connectorID,
	}, &conf)
	if err != nil {
		return nil, err
	}

	ctrl.audit(actor, deviceID, "unlock_connector", fmt.Sprintf("connectorId=%d status=%s", connectorID, conf.Status))

	return ctrl.result(deviceID, ocpp.ActionUnlockConnector, conf.Status), nil
}

// Whitelist accepts an id tag for authorization from now on.
func (ctrl *Controller) Whitelist(actor, idTag string) error {
	if idTag == "" {
		return guardrails.NewValidationError("idTag", "must not be empty")
	}

	if err := ctrl.store.Authorizations().Add(idTag); err != nil {
		return err
	}

	ctrl.audit(actor, "", "whitelist", fmt.Sprintf("idTag=%s", idTag))
	return nil
}

// TriggerScenario starts a fault scenario on a connected device.
func (ctrl *Controller) TriggerScenario(actor, kindName, deviceID string) error {
	kind, err := scenario.ParseKind(kindName)
	if err != nil {
		return err
	}

	if _, ok := ctrl.registry.Lookup(deviceID); !ok {
		return NewNotConnectedError(deviceID)
	}

	if err := ctrl.scenarios.Trigger(kind, deviceID); err != nil {
		return err
	}

	ctrl.audit(actor, deviceID, "trigger_scenario", fmt.Sprintf("kind=%s", kind))
	return nil
}

// ClearScenario removes any active fault scenario. With an empty device id
// every scenario in the fleet is cleared.
func (ctrl *Controller) ClearScenario(actor, deviceID string) {
	if deviceID == "" {
		ctrl.scenarios.ClearAll()
		ctrl.audit(actor, "", "clear_scenarios", "all devices")
		return
	}

	ctrl.scenarios.Clear(deviceID)
	ctrl.audit(actor, deviceID, "clear_scenario", "")
}

// call sends one command to a connected device and decodes the result
// payload. The wait is bounded by the configured call timeout.
func (ctrl *Controller) call(deviceID string, action ocpp.Action, payload, result interface{}) error {
	sess, ok := ctrl.registry.Lookup(deviceID)
	if !ok {
		return NewNotConnectedError(deviceID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ctrl.opts.CallTimeout)
	defer cancel()

	data, err := sess.Call(ctx, action, payload)
	if err != nil {
		if ocpp.IsCallError(err) {
			return NewTransportError(deviceID, err.Error())
		}
		return err
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return NewTransportError(deviceID, fmt.Sprintf("malformed result payload: %s", err.Error()))
		}
	}
	return nil
}

func (ctrl *Controller) result(deviceID string, action ocpp.Action, status string) *CommandResult {
	return &CommandResult{
		DeviceID: deviceID,
		Action:   action.String(),
		Status:   status,
	}
}

// audit records a guarded action. The log is append only and written
// after the action took effect; recording failures never fail the command.
func (ctrl *Controller) audit(actor, deviceID, action, details string) {
	if !ctrl.opts.AuditEnabled {
		return
	}
	if actor == "" {
		actor = "api"
	}

	err := ctrl.store.Audit().Append(&model.AuditEntry{
		Timestamp: time.Now().Round(time.Second).UTC(),
		DeviceID:  deviceID,
		Actor:     actor,
		Action:    action,
		Details:   details,
	})
	if err != nil {
		log.Errorf("failed to append audit entry for action '%s': %s", action, err.Error())
	}
}
