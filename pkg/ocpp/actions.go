package ocpp

// Action is the closed set of operations spoken on the wire. Keeping it an
// enum means a new action is a compile-time checked addition instead of a
// runtime string miss.
type Action int

const (
	ActionInvalid Action = iota

	// Charge point to central system
	ActionBootNotification
	ActionHeartbeat
	ActionStatusNotification
	ActionMeterValues
	ActionAuthorize
	ActionStartTransaction
	ActionStopTransaction

	// Central system to charge point
	ActionReset
	ActionChangeAvailability
	ActionChangeConfiguration
	ActionRemoteStartTransaction
	ActionRemoteStopTransaction
	ActionUnlockConnector
)

var actionNames = map[Action]string{
	ActionBootNotification:       "BootNotification",
	ActionHeartbeat:              "Heartbeat",
	ActionStatusNotification:     "StatusNotification",
	ActionMeterValues:            "MeterValues",
	ActionAuthorize:              "Authorize",
	ActionStartTransaction:       "StartTransaction",
	ActionStopTransaction:        "StopTransaction",
	ActionReset:                  "Reset",
	ActionChangeAvailability:     "ChangeAvailability",
	ActionChangeConfiguration:    "ChangeConfiguration",
	ActionRemoteStartTransaction: "RemoteStartTransaction",
	ActionRemoteStopTransaction:  "RemoteStopTransaction",
	ActionUnlockConnector:        "UnlockConnector",
}

func (a Action) String() string {
	name, ok := actionNames[a]
	if !ok {
		return ""
	}

	return name
}

// ParseAction resolves a wire action name to its enum value. Unknown names
// yield an UnknownActionError, never a panic.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}

	return ActionInvalid, NewUnknownActionError(name)
}
