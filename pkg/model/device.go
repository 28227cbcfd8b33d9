package model

import "time"

// ChargePointStatus is the operational status reported by a charge point
// with a StatusNotification message.
type ChargePointStatus string

const (
	StatusAvailable   ChargePointStatus = "Available"
	StatusPreparing   ChargePointStatus = "Preparing"
	StatusCharging    ChargePointStatus = "Charging"
	StatusOccupied    ChargePointStatus = "Occupied"
	StatusFinishing   ChargePointStatus = "Finishing"
	StatusUnavailable ChargePointStatus = "Unavailable"
	StatusFaulted     ChargePointStatus = "Faulted"
)

// Status is the last known StatusNotification payload of a device.
type Status struct {
	DeviceID    string
	ConnectorID int
	Status      ChargePointStatus
	ErrorCode   string

	UpdatedAt time.Time
}

// Heartbeat records the timestamp of the last liveness message of a device.
// Sessions are never expired here; staleness is inferred by the caller.
type Heartbeat struct {
	DeviceID string
	LastSeen time.Time
}

// PowerLimit holds the administrator configured charging power limits of a
// device. DefaultKW applies to the whole device, ConnectorKW overrides it
// per connector.
type PowerLimit struct {
	DeviceID    string
	DefaultKW   float64
	HasDefault  bool
	ConnectorKW map[int]float64

	UpdatedAt time.Time
}

// Authorization is a whitelisted RFID tag.
type Authorization struct {
	IDTag  string
	Status string

	CreatedAt time.Time
}
