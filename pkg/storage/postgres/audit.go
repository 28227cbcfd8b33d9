package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
)

func newAuditStore(db *sqlx.DB) *auditStore {
	return &auditStore{
		db: db,
	}
}

type auditStore struct {
	db *sqlx.DB
}

type sqlDataAuditEntry struct {
	ID        int32     `db:"id"`
	Timestamp time.Time `db:"timestamp"`
	DeviceID  string    `db:"device_id"`
	Actor     string    `db:"actor"`
	Action    string    `db:"action"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

var sqlParamsAuditEntry = []string{
	"id",
	"timestamp",
	"device_id",
	"actor",
	"action",
	"details",
	"created_at",
}

func (d *sqlDataAuditEntry) Scan(m *model.AuditEntry) error {
	createdAt := m.CreatedAt
	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.Timestamp = m.Timestamp
	d.DeviceID = m.DeviceID
	d.Actor = m.Actor
	d.Action = m.Action
	d.Details = m.Details
	d.CreatedAt = createdAt

	return nil
}

func (d *sqlDataAuditEntry) Model() (*model.AuditEntry, error) {
	m := &model.AuditEntry{
		ID:        d.ID,
		Timestamp: d.Timestamp,
		DeviceID:  d.DeviceID,
		Actor:     d.Actor,
		Action:    d.Action,
		Details:   d.Details,
		CreatedAt: d.CreatedAt,
	}

	return m, nil
}

func (s *auditStore) FetchAll() ([]model.AuditEntry, error) {
	return fetchAuditEntries(s.db, "SELECT * FROM audit_entries ORDER BY id")
}

func (s *auditStore) FindByDeviceID(deviceID string) ([]model.AuditEntry, error) {
	return fetchAuditEntries(s.db,
		"SELECT * FROM audit_entries WHERE device_id=$1 ORDER BY id", deviceID)
}

func (s *auditStore) Append(m *model.AuditEntry) error {
	d := sqlDataAuditEntry{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert audit entry model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsAuditEntry {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO audit_entries (%s) VALUES (%s)",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := s.db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to append audit entry")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func (s *auditStore) Reset() error {
	if _, err := s.db.Exec("DELETE FROM audit_entries"); err != nil {
		return errors.Wrap(err, "failed to reset audit entries")
	}
	return nil
}

func fetchAuditEntries(db *sqlx.DB, query string, args ...interface{}) ([]model.AuditEntry, error) {
	rows := make([]sqlDataAuditEntry, 0)
	models := make([]model.AuditEntry, 0)

	if err := db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to fetch audit entries")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to audit entry model")
		}

		models = append(models, *m)
	}

	return models, nil
}
