package centralsystem

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Lyadalachanchu/voice4evs/pkg/guardrails"
	"github.com/Lyadalachanchu/voice4evs/pkg/model"
	"github.com/Lyadalachanchu/voice4evs/pkg/ocpp"
	"github.com/Lyadalachanchu/voice4evs/pkg/scenario"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage/memory"
)

// newTestSession wires a session without transport workers. Outbound
// frames land in the outbox channel where the test inspects them.
func newTestSession(t *testing.T, deviceID string) (*Controller, *Session) {
	t.Helper()

	store := memory.NewStore()
	ctrl := NewController(nil, store,
		guardrails.NewEnforcer(guardrails.DefaultSettings()),
		scenario.NewEngine(store.Status()),
		DefaultOptions())

	sess := &Session{
		ctrl:          ctrl,
		deviceID:      deviceID,
		wsTerminateCh: make(chan struct{}, 1),
		wsCloseCh:     make(chan struct{}),
		wsOutboxCh:    make(chan *response, 100),
		nextUniqueID:  1,
		pending:       make(map[string]chan callOutcome),
	}
	ctrl.registerSession(sess)

	return ctrl, sess
}

func nextOutbox(t *testing.T, sess *Session) []byte {
	t.Helper()
	select {
	case res := <-sess.wsOutboxCh:
		return res.Data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an outbox frame")
		return nil
	}
}

func TestSessionCall_CorrelatesResult(t *testing.T) {
	_, sess := newTestSession(t, "EVSE001")

	type result struct {
		payload json.RawMessage
		err     error
	}
	done := make(chan result, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		payload, err := sess.Call(ctx, ocpp.ActionReset, &ocpp.ResetRequest{Type: "Soft"})
		done <- result{payload, err}
	}()

	// Inspect the outbound frame and answer it like a device would.
	out := nextOutbox(t, sess)
	_, v, err := ocpp.UnmarshalMessage(out)
	if err != nil {
		t.Fatalf("UnmarshalMessage() error = %v", err)
	}
	callMsg, err := ocpp.MustCallMessage(v)
	if err != nil {
		t.Fatalf("MustCallMessage() error = %v", err)
	}
	if callMsg.UniqueID != "EVSE001-1" {
		t.Errorf("UniqueID = %q, want EVSE001-1", callMsg.UniqueID)
	}
	if callMsg.Action != ocpp.ActionReset {
		t.Errorf("Action = %v, want Reset", callMsg.Action)
	}

	answer := fmt.Sprintf(`[3, "%s", {"status": "Accepted"}]`, callMsg.UniqueID)
	if _, _, err := sess.HandleMessage([]byte(answer)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("Call() error = %v", res.err)
	}
	var conf ocpp.ResetConfirmation
	if err := json.Unmarshal(res.payload, &conf); err != nil {
		t.Fatalf("payload unmarshal error = %v", err)
	}
	if conf.Status != "Accepted" {
		t.Errorf("Status = %q, want Accepted", conf.Status)
	}
}

func TestSessionCall_DeviceRejection(t *testing.T) {
	_, sess := newTestSession(t, "EVSE001")

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := sess.Call(ctx, ocpp.ActionUnlockConnector, &ocpp.UnlockConnectorRequest{ConnectorID: 1})
		done <- err
	}()

	out := nextOutbox(t, sess)
	_, v, _ := ocpp.UnmarshalMessage(out)
	callMsg, _ := ocpp.MustCallMessage(v)

	answer := fmt.Sprintf(`[4, "%s", "NotSupported", "no lock fitted", {}]`, callMsg.UniqueID)
	if _, _, err := sess.HandleMessage([]byte(answer)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	err := <-done
	if err == nil {
		t.Fatal("Call() expected error for a call error frame")
	}
	if !ocpp.IsCallError(err) {
		t.Errorf("Call() error = %T, want *CallError", err)
	}
}

func TestSession_UnmatchedResultDropped(t *testing.T) {
	_, sess := newTestSession(t, "EVSE001")

	// A response nobody asked for must be logged and dropped, not kill
	// the connection.
	_, flag, err := sess.HandleMessage([]byte(`[3, "EVSE001-999", {"status": "Accepted"}]`))
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if flag != FlagContinue {
		t.Errorf("flag = %v, want continue", flag)
	}
}

func TestSession_UniqueIDsNeverReused(t *testing.T) {
	_, sess := newTestSession(t, "EVSE001")

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			sess.Call(ctx, ocpp.ActionHeartbeat, nil)
		}()

		out := nextOutbox(t, sess)
		_, v, _ := ocpp.UnmarshalMessage(out)
		callMsg, _ := ocpp.MustCallMessage(v)
		if seen[callMsg.UniqueID] {
			t.Fatalf("unique id %q reused", callMsg.UniqueID)
		}
		seen[callMsg.UniqueID] = true

		answer := fmt.Sprintf(`[3, "%s", {}]`, callMsg.UniqueID)
		sess.HandleMessage([]byte(answer))
	}
}

func TestSessionClose_FailsPendingCalls(t *testing.T) {
	ctrl, sess := newTestSession(t, "EVSE001")

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := sess.Call(ctx, ocpp.ActionReset, &ocpp.ResetRequest{Type: "Soft"})
		done <- err
	}()
	nextOutbox(t, sess)

	sess.Close()

	err := <-done
	if err == nil {
		t.Fatal("Call() expected error after close")
	}
	if !IsNotConnectedError(err) {
		t.Errorf("Call() error = %T, want *NotConnectedError", err)
	}

	if _, ok := ctrl.Registry().Lookup("EVSE001"); ok {
		t.Error("Lookup() = true after close, want session unregistered")
	}

	// Further calls fail fast.
	if _, err := sess.Call(context.Background(), ocpp.ActionHeartbeat, nil); !IsNotConnectedError(err) {
		t.Errorf("Call() error = %v after close, want *NotConnectedError", err)
	}
}

func TestSession_BootNotificationHandshake(t *testing.T) {
	ctrl, sess := newTestSession(t, "EVSE001")

	frame := `[2, "boot-1", "BootNotification", {"chargePointVendor": "Demo", "chargePointModel": "Sim"}]`
	if _, _, err := sess.HandleMessage([]byte(frame)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	out := nextOutbox(t, sess)
	_, v, err := ocpp.UnmarshalMessage(out)
	if err != nil {
		t.Fatalf("UnmarshalMessage() error = %v", err)
	}
	resultMsg, err := ocpp.MustCallResultMessage(v)
	if err != nil {
		t.Fatalf("MustCallResultMessage() error = %v", err)
	}
	if resultMsg.UniqueID != "boot-1" {
		t.Errorf("UniqueID = %q, want boot-1", resultMsg.UniqueID)
	}

	var conf ocpp.BootNotificationConfirmation
	if err := json.Unmarshal(resultMsg.Payload, &conf); err != nil {
		t.Fatalf("payload unmarshal error = %v", err)
	}
	if conf.Status != ocpp.RegistrationStatusAccepted {
		t.Errorf("Status = %q, want Accepted", conf.Status)
	}
	if conf.Interval != ctrl.opts.HeartbeatInterval {
		t.Errorf("Interval = %d, want %d", conf.Interval, ctrl.opts.HeartbeatInterval)
	}

	if _, err := ctrl.Store().Heartbeats().FindByDeviceID("EVSE001"); err != nil {
		t.Errorf("FindByDeviceID() error = %v, want heartbeat touched on boot", err)
	}
}

func TestSession_UnknownActionAnsweredNotImplemented(t *testing.T) {
	_, sess := newTestSession(t, "EVSE001")

	frame := `[2, "dt-1", "DataTransfer", {}]`
	_, flag, err := sess.HandleMessage([]byte(frame))
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if flag != FlagContinue {
		t.Errorf("flag = %v, want continue, unknown actions are not fatal", flag)
	}

	out := nextOutbox(t, sess)
	_, v, _ := ocpp.UnmarshalMessage(out)
	errorMsg, err := ocpp.MustCallErrorMessage(v)
	if err != nil {
		t.Fatalf("MustCallErrorMessage() error = %v", err)
	}
	if errorMsg.UniqueID != "dt-1" {
		t.Errorf("UniqueID = %q, want dt-1", errorMsg.UniqueID)
	}
	if errorMsg.ErrorCode != ocpp.ErrCodeNotImplemented {
		t.Errorf("ErrorCode = %q, want NotImplemented", errorMsg.ErrorCode)
	}
}

func TestSession_AuthorizeChecksWhitelist(t *testing.T) {
	tests := []struct {
		name  string
		idTag string
		want  string
	}{
		{"seeded tag accepted", "USER123", ocpp.AuthorizationStatusAccepted},
		{"unknown tag invalid", "STRANGER", ocpp.AuthorizationStatusInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sess := newTestSession(t, "EVSE001")

			frame := fmt.Sprintf(`[2, "auth-1", "Authorize", {"idTag": "%s"}]`, tt.idTag)
			if _, _, err := sess.HandleMessage([]byte(frame)); err != nil {
				t.Fatalf("HandleMessage() error = %v", err)
			}

			out := nextOutbox(t, sess)
			_, v, _ := ocpp.UnmarshalMessage(out)
			resultMsg, _ := ocpp.MustCallResultMessage(v)

			var conf ocpp.AuthorizeConfirmation
			if err := json.Unmarshal(resultMsg.Payload, &conf); err != nil {
				t.Fatalf("payload unmarshal error = %v", err)
			}
			if conf.IDTagInfo.Status != tt.want {
				t.Errorf("Status = %q, want %q", conf.IDTagInfo.Status, tt.want)
			}
		})
	}
}

func TestSession_AuthorizeForcedFailure(t *testing.T) {
	ctrl, sess := newTestSession(t, "EVSE001")
	ctrl.Scenarios().Trigger(scenario.KindAuthFailure, "EVSE001")

	frame := `[2, "auth-2", "Authorize", {"idTag": "USER123"}]`
	if _, _, err := sess.HandleMessage([]byte(frame)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	out := nextOutbox(t, sess)
	_, v, _ := ocpp.UnmarshalMessage(out)
	resultMsg, _ := ocpp.MustCallResultMessage(v)

	var conf ocpp.AuthorizeConfirmation
	if err := json.Unmarshal(resultMsg.Payload, &conf); err != nil {
		t.Fatalf("payload unmarshal error = %v", err)
	}
	if conf.IDTagInfo.Status != ocpp.AuthorizationStatusInvalid {
		t.Errorf("Status = %q, want Invalid while the scenario is active", conf.IDTagInfo.Status)
	}
}

func TestSession_StatusNotificationOverridden(t *testing.T) {
	ctrl, sess := newTestSession(t, "EVSE002")
	ctrl.Scenarios().Trigger(scenario.KindStuckCharging, "EVSE002")

	// The device honestly reports Available, the stuck scenario pins the
	// stored view to Charging.
	frame := `[2, "sn-1", "StatusNotification", {"connectorId": 1, "errorCode": "NoError", "status": "Available"}]`
	if _, _, err := sess.HandleMessage([]byte(frame)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	nextOutbox(t, sess)

	st, err := ctrl.Store().Status().FindByDeviceID("EVSE002")
	if err != nil {
		t.Fatalf("FindByDeviceID() error = %v", err)
	}
	if st.Status != model.StatusCharging {
		t.Errorf("stored status = %q, want Charging while stuck", st.Status)
	}
}

func TestSession_StartTransactionAllocatesIDs(t *testing.T) {
	_, sess := newTestSession(t, "EVSE001")

	ids := make(map[int]bool)
	for i := 0; i < 2; i++ {
		frame := fmt.Sprintf(`[2, "st-%d", "StartTransaction", {"connectorId": 1, "idTag": "USER123", "meterStart": 0, "timestamp": "2025-06-01T12:00:00Z"}]`, i)
		if _, _, err := sess.HandleMessage([]byte(frame)); err != nil {
			t.Fatalf("HandleMessage() error = %v", err)
		}

		out := nextOutbox(t, sess)
		_, v, _ := ocpp.UnmarshalMessage(out)
		resultMsg, _ := ocpp.MustCallResultMessage(v)

		var conf ocpp.StartTransactionConfirmation
		if err := json.Unmarshal(resultMsg.Payload, &conf); err != nil {
			t.Fatalf("payload unmarshal error = %v", err)
		}
		if conf.TransactionID <= 0 {
			t.Errorf("TransactionID = %d, want positive", conf.TransactionID)
		}
		if ids[conf.TransactionID] {
			t.Errorf("TransactionID %d reused", conf.TransactionID)
		}
		ids[conf.TransactionID] = true
	}
}

func TestNewestConnectionReplacesSession(t *testing.T) {
	ctrl, first := newTestSession(t, "EVSE001")

	second := &Session{
		ctrl:          ctrl,
		deviceID:      "EVSE001",
		wsTerminateCh: make(chan struct{}, 1),
		wsCloseCh:     make(chan struct{}),
		wsOutboxCh:    make(chan *response, 100),
		nextUniqueID:  1,
		pending:       make(map[string]chan callOutcome),
	}
	ctrl.registerSession(second)

	// The first session got a terminate signal and must not displace its
	// successor when it finally exits.
	select {
	case <-first.wsCloseCh:
	case <-time.After(time.Second):
		t.Fatal("prior session was not told to terminate")
	}

	first.Close()

	got, ok := ctrl.Registry().Lookup("EVSE001")
	if !ok || got != second {
		t.Errorf("Lookup() = %v, %v, want the newest session", got, ok)
	}
}
