package ocpp

// Typed payloads for the supported subset of OCPP 1.6. Field names follow
// the wire format (lowerCamelCase).

const (
	RegistrationStatusAccepted = "Accepted"
	RegistrationStatusRejected = "Rejected"

	AuthorizationStatusAccepted = "Accepted"
	AuthorizationStatusInvalid  = "Invalid"
	AuthorizationStatusBlocked  = "Blocked"

	AvailabilityTypeOperative   = "Operative"
	AvailabilityTypeInoperative = "Inoperative"

	ResetTypeHard = "Hard"
	ResetTypeSoft = "Soft"
)

type IdTagInfo struct {
	Status string `json:"status"`
}

type BootNotificationRequest struct {
	ChargePointVendor string `json:"chargePointVendor"`
	ChargePointModel  string `json:"chargePointModel"`
}

type BootNotificationConfirmation struct {
	CurrentTime string `json:"currentTime"`
	Interval    int    `json:"interval"`
	Status      string `json:"status"`
}

type HeartbeatRequest struct{}

type HeartbeatConfirmation struct {
	CurrentTime string `json:"currentTime"`
}

type StatusNotificationRequest struct {
	ConnectorID int    `json:"connectorId"`
	ErrorCode   string `json:"errorCode"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp,omitempty"`
}

type StatusNotificationConfirmation struct{}

type MeterValue struct {
	Timestamp    string         `json:"timestamp"`
	SampledValue []SampledValue `json:"sampledValue"`
}

type SampledValue struct {
	Value     string `json:"value"`
	Measurand string `json:"measurand,omitempty"`
	Unit      string `json:"unit,omitempty"`
}

type MeterValuesRequest struct {
	ConnectorID   int          `json:"connectorId"`
	TransactionID int          `json:"transactionId,omitempty"`
	MeterValue    []MeterValue `json:"meterValue"`
}

type MeterValuesConfirmation struct{}

type AuthorizeRequest struct {
	IDTag string `json:"idTag"`
}

type AuthorizeConfirmation struct {
	IDTagInfo IdTagInfo `json:"idTagInfo"`
}

type StartTransactionRequest struct {
	ConnectorID int    `json:"connectorId"`
	IDTag       string `json:"idTag"`
	MeterStart  int    `json:"meterStart"`
	Timestamp   string `json:"timestamp"`
}

type StartTransactionConfirmation struct {
	TransactionID int       `json:"transactionId"`
	IDTagInfo     IdTagInfo `json:"idTagInfo"`
}

type StopTransactionRequest struct {
	MeterStop     int    `json:"meterStop"`
	Timestamp     string `json:"timestamp"`
	TransactionID int    `json:"transactionId"`
}

type StopTransactionConfirmation struct {
	IDTagInfo *IdTagInfo `json:"idTagInfo,omitempty"`
}

type ResetRequest struct {
	Type string `json:"type"`
}

type ResetConfirmation struct {
	Status string `json:"status"`
}

type ChangeAvailabilityRequest struct {
	ConnectorID *int   `json:"connectorId,omitempty"`
	Type        string `json:"type"`
}

type ChangeAvailabilityConfirmation struct {
	Status string `json:"status"`
}

type ChangeConfigurationRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ChangeConfigurationConfirmation struct {
	Status string `json:"status"`
}

type RemoteStartTransactionRequest struct {
	IDTag       string `json:"idTag"`
	ConnectorID *int   `json:"connectorId,omitempty"`
}

type RemoteStartTransactionConfirmation struct {
	Status string `json:"status"`
}

type RemoteStopTransactionRequest struct {
	TransactionID int `json:"transactionId"`
}

type RemoteStopTransactionConfirmation struct {
	Status string `json:"status"`
}

type UnlockConnectorRequest struct {
	ConnectorID int `json:"connectorId"`
}

type UnlockConnectorConfirmation struct {
	Status string `json:"status"`
}
