package postgres

import (
	"github.com/jmoiron/sqlx"

	// Registers the postgres driver for sqlx.Open.
	_ "github.com/lib/pq"

	"github.com/Lyadalachanchu/voice4evs/pkg/storage"
)

// NewAuditStore creates a PostgreSQL backed AuditStore. Runtime state stays
// in memory; only the audit history is worth keeping across restarts for
// later review.
func NewAuditStore(db *sqlx.DB) storage.AuditStore {
	return newAuditStore(db)
}
