package model

import "time"

// AuditEntry is an immutable record of a guardrail gated action. Entries are
// append-only and never mutated, except by the reset-for-testing operation
// of the audit store.
type AuditEntry struct {
	ID        int32
	Timestamp time.Time
	DeviceID  string
	Actor     string
	Action    string
	Details   string

	CreatedAt time.Time
}
