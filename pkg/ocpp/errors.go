package ocpp

import "fmt"

// ErrorCode is the code carried by the third element of a call error frame.
type ErrorCode string

const (
	ErrCodeNotImplemented       ErrorCode = "NotImplemented"
	ErrCodeNotSupported         ErrorCode = "NotSupported"
	ErrCodeInternalError        ErrorCode = "InternalError"
	ErrCodeProtocolError        ErrorCode = "ProtocolError"
	ErrCodeSecurityError        ErrorCode = "SecurityError"
	ErrCodeFormationViolation   ErrorCode = "FormationViolation"
	ErrCodePropertyConstraint   ErrorCode = "PropertyConstraintViolation"
	ErrCodeOccurenceConstraint  ErrorCode = "OccurenceConstraintViolation"
	ErrCodeTypeConstraint       ErrorCode = "TypeConstraintViolation"
	ErrCodeGenericError         ErrorCode = "GenericError"
)

func (e ErrorCode) String() string {
	return string(e)
}

// UnknownActionError is returned when a message names an action outside the
// closed set. It is a client error, never fatal to the process.
type UnknownActionError struct {
	Name string
}

func NewUnknownActionError(name string) error {
	return &UnknownActionError{Name: name}
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Name)
}

func IsUnknownActionError(e error) bool {
	_, ok := e.(*UnknownActionError)
	return ok
}

// CallError wraps a received call error frame as a Go error so callers of
// the correlator can inspect the device's rejection.
type CallError struct {
	Code        ErrorCode
	Description string
}

func NewCallError(code ErrorCode, description string) error {
	return &CallError{Code: code, Description: description}
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call failed: %s: %s", e.Code, e.Description)
}

func IsCallError(e error) bool {
	_, ok := e.(*CallError)
	return ok
}
