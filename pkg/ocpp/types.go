package ocpp

import "encoding/json"

// SubProtocol is the websocket subprotocol negotiated with charge points.
const SubProtocol = "ocpp1.6"

type MessageType int

const (
	MessageTypeInvalid    MessageType = 0
	MessageTypeCall       MessageType = 2
	MessageTypeCallResult MessageType = 3
	MessageTypeCallError  MessageType = 4
)

func (msgType MessageType) String() string {
	names := map[MessageType]string{
		MessageTypeCall:       "CALL",
		MessageTypeCallResult: "CALLRESULT",
		MessageTypeCallError:  "CALLERROR"}

	msgTypeName, ok := names[msgType]
	if !ok {
		return ""
	}

	return msgTypeName
}

// CallMessage is a 4-element message initiating an operation:
// [2, uniqueId, action, payload]
type CallMessage struct {
	UniqueID string
	Action   Action
	Payload  json.RawMessage
}

// CallResultMessage is a 3-element message answering a call:
// [3, uniqueId, payload]
type CallResultMessage struct {
	UniqueID string
	Payload  json.RawMessage
}

// CallErrorMessage is a 5-element message rejecting a call:
// [4, uniqueId, errorCode, errorDescription, details]
type CallErrorMessage struct {
	UniqueID         string
	ErrorCode        ErrorCode
	ErrorDescription string
	Details          json.RawMessage
}
