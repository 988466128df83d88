// Package core provides the Well Registry for calcvol.
//
// INVARIANTS:
// - From is unique across the registry (unique index on the normalized column)
// - From and To are stored trimmed and upper-cased
// - Listing and search are ordered ascending by From
package core

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/calcvol/calcvol/internal/model"
)

// storeTimeLayout is the layout of created_at columns.
const storeTimeLayout = "2006-01-02 15:04:05.000"

const wellColumns = `id, de, para, diam, comp, created_at`

// WellRegistry manages the persisted well segments.
type WellRegistry struct {
	db     *sql.DB
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewWellRegistry creates a registry over db.
func NewWellRegistry(db *sql.DB, logger *slog.Logger) *WellRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WellRegistry{db: db, logger: logger}
}

// NormalizeWell trims and upper-cases the segment ends and validates every field.
func NormalizeWell(segment *model.WellSegment) error {
	if segment == nil {
		return validationErr("well segment is required")
	}
	segment.From = strings.ToUpper(strings.TrimSpace(segment.From))
	segment.To = strings.ToUpper(strings.TrimSpace(segment.To))

	if segment.From == "" {
		return validationErr("well name (from) is required")
	}
	if segment.To == "" {
		return validationErr("destination (to) is required")
	}
	if segment.DiameterCode <= 0 {
		return validationErr("diameter is required")
	}
	if !isPositiveFinite(segment.LengthMeters) {
		return validationErr("length must be a positive number, got %v", segment.LengthMeters)
	}
	return nil
}

// Insert normalizes, validates and stores a new segment.
// The uniqueness check and the write are one atomic statement.
func (wr *WellRegistry) Insert(ctx context.Context, segment *model.WellSegment) (int64, error) {
	if err := NormalizeWell(segment); err != nil {
		return 0, err
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	result, err := wr.db.ExecContext(ctx, `
		INSERT INTO wells (de, para, diam, comp) VALUES (?, ?, ?, ?)
	`, segment.From, segment.To, segment.DiameterCode, segment.LengthMeters)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: well %s already exists", ErrDuplicate, segment.From)
		}
		return 0, persistenceErr("failed to insert well", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, persistenceErr("failed to get well id", err)
	}
	segment.ID = id

	wr.logger.Debug("well registered", "id", id, "from", segment.From, "to", segment.To)
	return id, nil
}

// Get returns the segment with the given id.
func (wr *WellRegistry) Get(ctx context.Context, id int64) (*model.WellSegment, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	row := wr.db.QueryRowContext(ctx, `SELECT `+wellColumns+` FROM wells WHERE id = ?`, id)
	segment, err := scanWell(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: well %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, persistenceErr("failed to get well", err)
	}
	return segment, nil
}

// ListAll returns every segment ordered by From.
func (wr *WellRegistry) ListAll(ctx context.Context) ([]*model.WellSegment, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	return wr.query(ctx, `SELECT `+wellColumns+` FROM wells ORDER BY de ASC, id ASC`)
}

// Search returns segments whose From or To contains term, ignoring case,
// ordered by From. A blank term matches every segment.
func (wr *WellRegistry) Search(ctx context.Context, term string) ([]*model.WellSegment, error) {
	term = strings.ToUpper(strings.TrimSpace(term))
	if term == "" {
		return wr.ListAll(ctx)
	}

	wr.mu.RLock()
	defer wr.mu.RUnlock()

	pattern := "%" + escapeLike(term) + "%"
	return wr.query(ctx, `
		SELECT `+wellColumns+` FROM wells
		WHERE de LIKE ? ESCAPE '\' OR para LIKE ? ESCAPE '\'
		ORDER BY de ASC, id ASC
	`, pattern, pattern)
}

// Update overwrites every field of the segment with the given id.
func (wr *WellRegistry) Update(ctx context.Context, id int64, segment *model.WellSegment) error {
	if err := NormalizeWell(segment); err != nil {
		return err
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	result, err := wr.db.ExecContext(ctx, `
		UPDATE wells SET de = ?, para = ?, diam = ?, comp = ? WHERE id = ?
	`, segment.From, segment.To, segment.DiameterCode, segment.LengthMeters, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: well %s already exists", ErrDuplicate, segment.From)
		}
		return persistenceErr("failed to update well", err)
	}
	if err := requireAffected(result, id); err != nil {
		return err
	}
	segment.ID = id
	return nil
}

// Delete removes the segment with the given id.
func (wr *WellRegistry) Delete(ctx context.Context, id int64) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	result, err := wr.db.ExecContext(ctx, `DELETE FROM wells WHERE id = ?`, id)
	if err != nil {
		return persistenceErr("failed to delete well", err)
	}
	return requireAffected(result, id)
}

// Count returns the number of registered segments.
func (wr *WellRegistry) Count(ctx context.Context) (int, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	var count int
	if err := wr.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wells`).Scan(&count); err != nil {
		return 0, persistenceErr("failed to count wells", err)
	}
	return count, nil
}

func (wr *WellRegistry) query(ctx context.Context, query string, args ...interface{}) ([]*model.WellSegment, error) {
	rows, err := wr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("failed to list wells", err)
	}
	defer rows.Close()

	segments := []*model.WellSegment{}
	for rows.Next() {
		segment, err := scanWell(rows)
		if err != nil {
			return nil, persistenceErr("failed to scan well", err)
		}
		segments = append(segments, segment)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("failed to list wells", err)
	}
	return segments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWell(row rowScanner) (*model.WellSegment, error) {
	var segment model.WellSegment
	var createdAt string
	err := row.Scan(&segment.ID, &segment.From, &segment.To,
		&segment.DiameterCode, &segment.LengthMeters, &createdAt)
	if err != nil {
		return nil, err
	}
	segment.CreatedAt = parseStoreTime(createdAt)
	return &segment, nil
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return persistenceErr("failed to read affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: well %d", ErrNotFound, id)
	}
	return nil
}

func parseStoreTime(s string) time.Time {
	for _, layout := range []string{storeTimeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
