package centralsystem

import "fmt"

// NotConnectedError is returned when a command targets a device without a
// live session. It is never retried automatically.
type NotConnectedError struct {
	DeviceID string
}

func NewNotConnectedError(deviceID string) error {
	return &NotConnectedError{DeviceID: deviceID}
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("device '%s' is not connected", e.DeviceID)
}

func IsNotConnectedError(e error) bool {
	_, ok := e.(*NotConnectedError)
	return ok
}

// TransportError is returned when sending or awaiting a message fails on an
// otherwise registered connection. The session stays registered; the
// device side disconnect handling evicts it, not this error.
type TransportError struct {
	DeviceID string
	Message  string
}

func NewTransportError(deviceID, message string) error {
	return &TransportError{
		DeviceID: deviceID,
		Message:  message,
	}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure for device '%s': %s", e.DeviceID, e.Message)
}

func IsTransportError(e error) bool {
	_, ok := e.(*TransportError)
	return ok
}
