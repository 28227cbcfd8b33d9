package ocpp

import (
	"encoding/json"
	"fmt"
)

func (m CallMessage) Marshal() ([]byte, error) {
	envelope := make([]interface{}, 4)
	envelope[0] = int(MessageTypeCall)
	envelope[1] = m.UniqueID
	envelope[2] = m.Action.String()
	envelope[3] = ensureEmptyDictIfNil(m.Payload)

	return json.Marshal(envelope)
}

func (m CallResultMessage) Marshal() ([]byte, error) {
	envelope := make([]interface{}, 3)
	envelope[0] = int(MessageTypeCallResult)
	envelope[1] = m.UniqueID
	envelope[2] = ensureEmptyDictIfNil(m.Payload)

	return json.Marshal(envelope)
}

func (m CallErrorMessage) Marshal() ([]byte, error) {
	envelope := make([]interface{}, 5)
	envelope[0] = int(MessageTypeCallError)
	envelope[1] = m.UniqueID
	envelope[2] = m.ErrorCode.String()
	envelope[3] = m.ErrorDescription
	envelope[4] = ensureEmptyDictIfNil(m.Details)

	return json.Marshal(envelope)
}

func MarshalMessage(v interface{}) ([]byte, error) {
	if msg, ok := v.(CallMessage); ok {
		return msg.Marshal()
	}
	if msg, ok := v.(CallResultMessage); ok {
		return msg.Marshal()
	}
	if msg, ok := v.(CallErrorMessage); ok {
		return msg.Marshal()
	}
	return nil, fmt.Errorf("cannot marshal an invalid message")
}

func ensureEmptyDictIfNil(v json.RawMessage) interface{} {
	type emptyDict struct{}
	if len(v) == 0 {
		return emptyDict{}
	}
	return v
}

func MarshalNewCallMessage(uniqueID string, action Action, payload interface{}) ([]byte, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	msg := CallMessage{UniqueID: uniqueID, Action: action, Payload: data}
	return MarshalMessage(msg)
}

func MarshalNewCallResultMessage(uniqueID string, payload interface{}) ([]byte, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	msg := CallResultMessage{UniqueID: uniqueID, Payload: data}
	return MarshalMessage(msg)
}

func MarshalNewCallErrorMessage(uniqueID string, code ErrorCode, description string, details interface{}) ([]byte, error) {
	data, err := marshalPayload(details)
	if err != nil {
		return nil, err
	}

	msg := CallErrorMessage{
		UniqueID:         uniqueID,
		ErrorCode:        code,
		ErrorDescription: description,
		Details:          data,
	}
	return MarshalMessage(msg)
}

func marshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
