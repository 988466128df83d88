// Package core provides the store Health Check for calcvol.
//
// INVARIANTS:
// - Health checks are OBSERVATIONAL only
// - NO automatic repair
package core

import (
	"context"
	"database/sql"
	"fmt"
)

// HealthManager inspects the store for corruption and drift.
type HealthManager struct {
	db       *sql.DB
	capacity int
}

// NewHealthManager creates a new health manager.
func NewHealthManager(db *sql.DB, historyCapacity int) *HealthManager {
	return &HealthManager{db: db, capacity: historyCapacity}
}

// StoreHealth is the result of a health check.
type StoreHealth struct {
	Integrity     string // "ok" or the first integrity_check message
	SchemaVersion string
	Issues        []string
}

// Healthy reports whether the check found no issues.
func (h *StoreHealth) Healthy() bool {
	return len(h.Issues) == 0
}

// Check runs the integrity check and verifies the schema version and
// history bound.
func (hm *HealthManager) Check(ctx context.Context) (*StoreHealth, error) {
	health := &StoreHealth{Issues: []string{}}

	if err := hm.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&health.Integrity); err != nil {
		return nil, persistenceErr("failed to run integrity check", err)
	}
	if health.Integrity != "ok" {
		health.Issues = append(health.Issues, "integrity: "+health.Integrity)
	}

	err := hm.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = 'schema_version'`).Scan(&health.SchemaVersion)
	switch {
	case err == sql.ErrNoRows:
		health.Issues = append(health.Issues, "schema version missing")
	case err != nil:
		return nil, persistenceErr("failed to read schema version", err)
	case health.SchemaVersion != SchemaVersion:
		health.Issues = append(health.Issues,
			fmt.Sprintf("schema version %s, expected %s", health.SchemaVersion, SchemaVersion))
	}

	var calcs int
	if err := hm.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calculations`).Scan(&calcs); err != nil {
		return nil, persistenceErr("failed to count calculations", err)
	}
	if calcs > hm.capacity {
		health.Issues = append(health.Issues,
			fmt.Sprintf("history holds %d entries, capacity is %d", calcs, hm.capacity))
	}

	return health, nil
}
