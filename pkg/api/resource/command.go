package resource

// Request bodies for the command endpoints. Value validation happens in
// the guardrail layer; the resources only carry the wire shape.

type ResetCommandResource struct {
	Type string `json:"type"`
}

type ChangeAvailabilityCommandResource struct {
	ConnectorID *int   `json:"connectorId,omitempty"`
	Type        string `json:"type"`
}

type ChangeConfigurationCommandResource struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type PowerLimitCommandResource struct {
	ConnectorID *int    `json:"connectorId,omitempty"`
	LimitKW     float64 `json:"limitKw"`
}

type RemoteStartCommandResource struct {
	IDTag       string `json:"idTag"`
	ConnectorID *int   `json:"connectorId,omitempty"`
}

type RemoteStopCommandResource struct {
	TransactionID int `json:"transactionId"`
}

type UnlockConnectorCommandResource struct {
	ConnectorID int `json:"connectorId"`
}

type SendLocalListCommandResource struct {
	IDTags []string `json:"idTags"`
}
