// Package core provides the Calculation History Log for calcvol.
//
// INVARIANTS:
// - Entries are listed most-recent-first by insertion order (rowid);
//   created_at is recorded data only and never orders or evicts
// - At most capacity entries are kept; append evicts the oldest silently
// - Entries are snapshots, never linked to the well registry
package core

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/calcvol/calcvol/internal/model"
	"github.com/google/uuid"
)

// DefaultHistoryCapacity is the number of calculations kept in history.
const DefaultHistoryCapacity = 50

// HistoryLog manages the bounded calculation history.
type HistoryLog struct {
	db       *sql.DB
	capacity int
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewHistoryLog creates a history log over db keeping at most capacity
// entries. A non-positive capacity selects DefaultHistoryCapacity.
func NewHistoryLog(db *sql.DB, capacity int, logger *slog.Logger) *HistoryLog {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryLog{db: db, capacity: capacity, logger: logger}
}

// Capacity returns the maximum number of kept entries.
func (hl *HistoryLog) Capacity() int {
	return hl.capacity
}

// Append stores result at the head of the history with a fresh id and
// evicts entries beyond capacity. It returns the number of evicted entries.
func (hl *HistoryLog) Append(ctx context.Context, result *model.CalculationResult) (int, error) {
	if result == nil {
		return 0, validationErr("calculation result is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return 0, persistenceErr("failed to generate calculation id", err)
	}

	hl.mu.Lock()
	defer hl.mu.Unlock()

	tx, err := hl.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistenceErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO calculations (id, well_name, distance, pipe_type, operation_type, volume_liters, volume_bbl, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id.String(), result.WellName, result.DistanceMeters, result.PipeTypeLabel,
		result.OperationTypeLabel, result.VolumeLiters, result.VolumeBarrels, result.Date)
	if err != nil {
		return 0, persistenceErr("failed to save calculation", err)
	}

	evict, err := tx.ExecContext(ctx, `
		DELETE FROM calculations WHERE rowid NOT IN (
			SELECT rowid FROM calculations ORDER BY rowid DESC LIMIT ?
		)
	`, hl.capacity)
	if err != nil {
		return 0, persistenceErr("failed to trim history", err)
	}
	evicted, err := evict.RowsAffected()
	if err != nil {
		return 0, persistenceErr("failed to trim history", err)
	}

	var createdAt string
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM calculations WHERE id = ?`, id.String()).Scan(&createdAt)
	if err != nil {
		return 0, persistenceErr("failed to read calculation", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, persistenceErr("failed to commit calculation", err)
	}

	result.ID = id.String()
	result.CreatedAt = parseStoreTime(createdAt)

	if evicted > 0 {
		hl.logger.Debug("history trimmed", "evicted", evicted, "capacity", hl.capacity)
	}
	return int(evicted), nil
}

// List returns the history, most recent first.
func (hl *HistoryLog) List(ctx context.Context) ([]*model.CalculationResult, error) {
	hl.mu.RLock()
	defer hl.mu.RUnlock()

	rows, err := hl.db.QueryContext(ctx, `
		SELECT id, well_name, distance, pipe_type, operation_type, volume_liters, volume_bbl, date, created_at
		FROM calculations
		ORDER BY rowid DESC
	`)
	if err != nil {
		return nil, persistenceErr("failed to list calculations", err)
	}
	defer rows.Close()

	results := []*model.CalculationResult{}
	for rows.Next() {
		var r model.CalculationResult
		var createdAt string
		err := rows.Scan(&r.ID, &r.WellName, &r.DistanceMeters, &r.PipeTypeLabel,
			&r.OperationTypeLabel, &r.VolumeLiters, &r.VolumeBarrels, &r.Date, &createdAt)
		if err != nil {
			return nil, persistenceErr("failed to scan calculation", err)
		}
		r.CreatedAt = parseStoreTime(createdAt)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("failed to list calculations", err)
	}
	return results, nil
}

// DeleteOne removes the entry with id. An absent id is not an error;
// the returned bool reports whether an entry was removed.
func (hl *HistoryLog) DeleteOne(ctx context.Context, id string) (bool, error) {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	result, err := hl.db.ExecContext(ctx, `DELETE FROM calculations WHERE id = ?`, id)
	if err != nil {
		return false, persistenceErr("failed to delete calculation", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, persistenceErr("failed to delete calculation", err)
	}
	return n > 0, nil
}

// Clear removes every entry and returns how many were removed.
func (hl *HistoryLog) Clear(ctx context.Context) (int, error) {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	result, err := hl.db.ExecContext(ctx, `DELETE FROM calculations`)
	if err != nil {
		return 0, persistenceErr("failed to clear history", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, persistenceErr("failed to clear history", err)
	}
	return int(n), nil
}

// Count returns the number of entries in history.
func (hl *HistoryLog) Count(ctx context.Context) (int, error) {
	hl.mu.RLock()
	defer hl.mu.RUnlock()

	var count int
	if err := hl.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calculations`).Scan(&count); err != nil {
		return 0, persistenceErr("failed to count calculations", err)
	}
	return count, nil
}
