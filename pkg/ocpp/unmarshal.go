package ocpp

import (
	"encoding/json"
	"fmt"
)

func unmarshalMessageType(v json.RawMessage) (MessageType, error) {
	var i int
	if err := json.Unmarshal(v, &i); err != nil {
		return MessageTypeInvalid, fmt.Errorf("ocpp: invalid message type given")
	}

	switch MessageType(i) {
	case MessageTypeCall, MessageTypeCallResult, MessageTypeCallError:
		return MessageType(i), nil
	}

	return MessageTypeInvalid, fmt.Errorf("ocpp: unknown message type given")
}

// UnmarshalMessage parses a wire frame into one of the typed messages. The
// second return value is a CallMessage, CallResultMessage or
// CallErrorMessage on success.
func UnmarshalMessage(data []byte) (MessageType, interface{}, error) {
	var envelope []json.RawMessage

	if err := json.Unmarshal(data, &envelope); err != nil {
		return MessageTypeInvalid, nil, fmt.Errorf("ocpp: invalid message data: %s", err.Error())
	}

	if len(envelope) < 1 {
		return MessageTypeInvalid, nil, fmt.Errorf("ocpp: message does not contain a message type")
	}

	msgType, err := unmarshalMessageType(envelope[0])
	if err != nil {
		return msgType, nil, err
	}

	switch msgType {
	case MessageTypeCall:
		return unmarshalCallMessage(envelope)
	case MessageTypeCallResult:
		return unmarshalCallResultMessage(envelope)
	case MessageTypeCallError:
		return unmarshalCallErrorMessage(envelope)
	}

	// This return should never be reached
	return MessageTypeInvalid, nil, fmt.Errorf("an unexpected error happened during unmarshalling the message")
}

func unmarshalCallMessage(envelope []json.RawMessage) (MessageType, interface{}, error) {
	if len(envelope) != 4 {
		return MessageTypeInvalid, nil, fmt.Errorf("incomplete call message")
	}

	uniqueID, err := unmarshalString(envelope[1])
	if err != nil {
		return MessageTypeInvalid, nil, fmt.Errorf("call message contains invalid unique ID type")
	}

	actionName, err := unmarshalString(envelope[2])
	if err != nil {
		return MessageTypeInvalid, nil, fmt.Errorf("call message contains invalid action type")
	}

	action, err := ParseAction(actionName)
	if err != nil {
		// Keep the frame: the caller answers with a NotImplemented error
		// instead of dropping the connection.
		return MessageTypeCall, CallMessage{
			UniqueID: uniqueID,
			Action:   ActionInvalid,
			Payload:  envelope[3],
		}, err
	}

	return MessageTypeCall, CallMessage{
		UniqueID: uniqueID,
		Action:   action,
		Payload:  envelope[3],
	}, nil
}

func unmarshalCallResultMessage(envelope []json.RawMessage) (MessageType, interface{}, error) {
	if len(envelope) != 3 {
		return MessageTypeInvalid, nil, fmt.Errorf("incomplete call result message")
	}

	uniqueID, err := unmarshalString(envelope[1])
	if err != nil {
		return MessageTypeInvalid, nil, fmt.Errorf("call result message contains invalid unique ID type")
	}

	return MessageTypeCallResult, CallResultMessage{
		UniqueID: uniqueID,
		Payload:  envelope[2],
	}, nil
}

func unmarshalCallErrorMessage(envelope []json.RawMessage) (MessageType, interface{}, error) {
	if len(envelope) < 4 {
		return MessageTypeInvalid, nil, fmt.Errorf("incomplete call error message")
	}

	uniqueID, err := unmarshalString(envelope[1])
	if err != nil {
		return MessageTypeInvalid, nil, fmt.Errorf("call error message contains invalid unique ID type")
	}

	code, err := unmarshalString(envelope[2])
	if err != nil {
		return MessageTypeInvalid, nil, fmt.Errorf("call error message contains invalid error code type")
	}

	description, err := unmarshalString(envelope[3])
	if err != nil {
		return MessageTypeInvalid, nil, fmt.Errorf("call error message contains invalid error description type")
	}

	var details json.RawMessage
	if len(envelope) == 5 {
		details = envelope[4]
	}

	return MessageTypeCallError, CallErrorMessage{
		UniqueID:         uniqueID,
		ErrorCode:        ErrorCode(code),
		ErrorDescription: description,
		Details:          details,
	}, nil
}

func unmarshalString(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", err
	}
	return s, nil
}

func MustCallMessage(v interface{}) (*CallMessage, error) {
	msg, ok := v.(CallMessage)
	if !ok {
		return nil, fmt.Errorf("not a call message")
	}

	return &msg, nil
}

func MustCallResultMessage(v interface{}) (*CallResultMessage, error) {
	msg, ok := v.(CallResultMessage)
	if !ok {
		return nil, fmt.Errorf("not a call result message")
	}

	return &msg, nil
}

func MustCallErrorMessage(v interface{}) (*CallErrorMessage, error) {
	msg, ok := v.(CallErrorMessage)
	if !ok {
		return nil, fmt.Errorf("not a call error message")
	}

	return &msg, nil
}
