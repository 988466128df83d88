// Package core provides the Overview Dashboard for calcvol.
//
// INVARIANTS:
// - Read-only operations only
// - Holds no state of its own; reads are serialized by the store's single connection
// - Totals are summed in decimal and rounded to two places
package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Dashboard provides a read-only overview of the registry and history.
type Dashboard struct {
	db       *sql.DB
	capacity int
}

// NewDashboard creates a new dashboard.
func NewDashboard(db *sql.DB, historyCapacity int) *Dashboard {
	return &Dashboard{
		db:       db,
		capacity: historyCapacity,
	}
}

// PipeUsage counts history entries per pipe type label.
type PipeUsage struct {
	PipeTypeLabel string
	Calculations  int
	Liters        float64
}

// Overview summarizes the stored state.
type Overview struct {
	GeneratedAt time.Time

	// Registry
	Wells             int
	TotalLengthMeters float64

	// History
	Calculations    int
	HistoryCapacity int
	TotalLiters     float64
	TotalBarrels    float64
	LastCalculation *time.Time

	Pipes []PipeUsage
}

// GetOverview returns a read-only overview.
func (d *Dashboard) GetOverview(ctx context.Context) (*Overview, error) {
	o := &Overview{
		GeneratedAt:     time.Now(),
		HistoryCapacity: d.capacity,
		Pipes:           []PipeUsage{},
	}

	// Registry summary
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(comp), 0) FROM wells
	`).Scan(&o.Wells, &o.TotalLengthMeters)
	if err != nil {
		return nil, persistenceErr("failed to summarize wells", err)
	}
	o.TotalLengthMeters = round2(o.TotalLengthMeters)

	// History summary; volumes are re-summed from the rounded entries
	rows, err := d.db.QueryContext(ctx, `
		SELECT pipe_type, volume_liters, volume_bbl, created_at FROM calculations ORDER BY rowid
	`)
	if err != nil {
		return nil, persistenceErr("failed to summarize history", err)
	}
	defer rows.Close()

	liters, barrels := decimal.Zero, decimal.Zero
	perPipe := map[string]*PipeUsage{}
	var order []string
	for rows.Next() {
		var label, createdAt string
		var l, b float64
		if err := rows.Scan(&label, &l, &b, &createdAt); err != nil {
			return nil, persistenceErr("failed to scan calculation", err)
		}
		o.Calculations++
		liters = liters.Add(decimal.NewFromFloat(l))
		barrels = barrels.Add(decimal.NewFromFloat(b))

		usage, ok := perPipe[label]
		if !ok {
			usage = &PipeUsage{PipeTypeLabel: label}
			perPipe[label] = usage
			order = append(order, label)
		}
		usage.Calculations++
		usage.Liters = decimal.NewFromFloat(usage.Liters).Add(decimal.NewFromFloat(l)).InexactFloat64()

		// Rows come in insertion order; the last one is the newest entry
		if t := parseStoreTime(createdAt); !t.IsZero() {
			o.LastCalculation = &t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("failed to summarize history", err)
	}

	o.TotalLiters = liters.Round(volumePlaces).InexactFloat64()
	o.TotalBarrels = barrels.Round(volumePlaces).InexactFloat64()
	for _, label := range order {
		usage := perPipe[label]
		usage.Liters = round2(usage.Liters)
		o.Pipes = append(o.Pipes, *usage)
	}
	return o, nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(volumePlaces).InexactFloat64()
}
