package resource

import (
	"time"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
)

type AuditEntryResource struct {
	ID        int32     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"deviceId,omitempty"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
}

type AuditListResource struct {
	Members []*AuditEntryResource `json:"members"`
}

func NewAuditEntry(m *model.AuditEntry) (out *AuditEntryResource) {
	out = &AuditEntryResource{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		DeviceID:  m.DeviceID,
		Actor:     m.Actor,
		Action:    m.Action,
		Details:   m.Details,
	}

	return // out
}

func NewAuditList(m []model.AuditEntry) (out *AuditListResource) {
	out = &AuditListResource{
		Members: make([]*AuditEntryResource, 0),
	}

	// Entries are append only and arrive in insertion order already.
	for i := range m {
		out.Members = append(out.Members, NewAuditEntry(&m[i]))
	}

	return // out
}
