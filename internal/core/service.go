package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/calcvol/calcvol/internal/catalog"
	"github.com/calcvol/calcvol/internal/model"
)

// DefaultDateLayout renders history dates day-first, as field crews read them.
const DefaultDateLayout = "02/01/2006 15:04:05"

// Options tunes a Service.
type Options struct {
	HistoryCapacity int
	DateLayout      string
	Location        *time.Location
	SuggestMinChars int
	SuggestLimit    int
	Now             func() time.Time
}

// Service is the entry point used by the presentation layer.
// It owns no global state; every collaborator is injected.
type Service struct {
	Catalog    *catalog.Catalog
	Calculator *Calculator
	Wells      *WellRegistry
	History    *HistoryLog
	Dashboard  *Dashboard
	Health     *HealthManager

	dateLayout      string
	location        *time.Location
	suggestMinChars int
	suggestLimit    int
	now             func() time.Time
	logger          *slog.Logger
}

// Snapshot is the state a screen reloads on focus.
type Snapshot struct {
	Wells   []*model.WellSegment
	History []*model.CalculationResult
}

// NewService wires the registry, history log and calculator over store.
func NewService(store *Store, cat *catalog.Catalog, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SuggestMinChars <= 0 {
		opts.SuggestMinChars = DefaultSuggestMinChars
	}
	if opts.SuggestLimit <= 0 {
		opts.SuggestLimit = DefaultSuggestLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	history := NewHistoryLog(store.DB(), opts.HistoryCapacity, logger)
	return &Service{
		Catalog:         cat,
		Calculator:      NewCalculator(cat),
		Wells:           NewWellRegistry(store.DB(), logger),
		History:         history,
		Dashboard:       NewDashboard(store.DB(), history.Capacity()),
		Health:          NewHealthManager(store.DB(), history.Capacity()),
		dateLayout:      opts.DateLayout,
		location:        opts.Location,
		suggestMinChars: opts.SuggestMinChars,
		suggestLimit:    opts.SuggestLimit,
		now:             opts.Now,
		logger:          logger,
	}
}

// --- Calculation ---

// CalculateVolume computes the volume for a distance, pipe type and operation.
func (s *Service) CalculateVolume(distanceMeters float64, pipeTypeID, operationTypeID int, wellName string) (*model.Calculation, error) {
	return s.Calculator.Calculate(distanceMeters, pipeTypeID, operationTypeID, wellName)
}

// Calculate computes a volume and records it in history.
// A recording failure does not hide the calculation: the result is returned
// together with an ErrPersistence error the caller may show as a warning.
func (s *Service) Calculate(ctx context.Context, distanceMeters float64, pipeTypeID, operationTypeID int, wellName string) (*model.CalculationResult, error) {
	if strings.TrimSpace(wellName) == "" {
		return nil, validationErr("well name is required")
	}

	calc, err := s.CalculateVolume(distanceMeters, pipeTypeID, operationTypeID, wellName)
	if err != nil {
		return nil, err
	}

	result := s.newResult(calc)
	if err := s.RecordCalculation(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// RecordCalculation appends result to the history.
// Failures are logged and returned as ErrPersistence; they are never fatal.
func (s *Service) RecordCalculation(ctx context.Context, result *model.CalculationResult) error {
	if result == nil {
		return validationErr("calculation result is required")
	}
	if result.Date == "" {
		result.Date = s.formatDate(s.now())
	}

	if _, err := s.History.Append(ctx, result); err != nil {
		s.logger.Warn("calculation done but not saved to history",
			"well", result.WellName, "error", err)
		return err
	}
	return nil
}

func (s *Service) newResult(calc *model.Calculation) *model.CalculationResult {
	return &model.CalculationResult{
		WellName:           calc.WellName,
		DistanceMeters:     calc.DistanceMeters,
		PipeTypeLabel:      calc.PipeType.Label,
		OperationTypeLabel: calc.OperationType.Label,
		VolumeLiters:       calc.Volume.Liters,
		VolumeBarrels:      calc.Volume.Barrels,
		Date:               s.formatDate(s.now()),
	}
}

func (s *Service) formatDate(t time.Time) string {
	return t.In(s.location).Format(s.dateLayout)
}

// --- Wells ---

// RegisterWell stores a new well segment and returns its id.
func (s *Service) RegisterWell(ctx context.Context, segment *model.WellSegment) (int64, error) {
	id, err := s.Wells.Insert(ctx, segment)
	if err != nil {
		return 0, err
	}
	s.logger.Info("well registered", "id", id, "from", segment.From)
	return id, nil
}

// GetWell returns the well segment with id.
func (s *Service) GetWell(ctx context.Context, id int64) (*model.WellSegment, error) {
	return s.Wells.Get(ctx, id)
}

// ListWells returns every well segment ordered by From.
func (s *Service) ListWells(ctx context.Context) ([]*model.WellSegment, error) {
	return s.Wells.ListAll(ctx)
}

// SearchWells returns segments matching term; a blank term lists everything.
func (s *Service) SearchWells(ctx context.Context, term string) ([]*model.WellSegment, error) {
	if strings.TrimSpace(term) == "" {
		return s.Wells.ListAll(ctx)
	}
	return s.Wells.Search(ctx, term)
}

// UpdateWell overwrites the segment with id.
func (s *Service) UpdateWell(ctx context.Context, id int64, segment *model.WellSegment) error {
	if err := s.Wells.Update(ctx, id, segment); err != nil {
		return err
	}
	s.logger.Info("well updated", "id", id, "from", segment.From)
	return nil
}

// DeleteWell removes the segment with id.
func (s *Service) DeleteWell(ctx context.Context, id int64) error {
	if err := s.Wells.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("well deleted", "id", id)
	return nil
}

// --- History ---

// GetHistory returns recorded calculations, most recent first.
func (s *Service) GetHistory(ctx context.Context) ([]*model.CalculationResult, error) {
	return s.History.List(ctx)
}

// DeleteHistoryEntry removes one entry and reports whether it existed.
func (s *Service) DeleteHistoryEntry(ctx context.Context, id string) (bool, error) {
	return s.History.DeleteOne(ctx, id)
}

// ClearHistory removes all entries and returns how many were removed.
func (s *Service) ClearHistory(ctx context.Context) (int, error) {
	n, err := s.History.Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("history cleared", "removed", n)
	return n, nil
}

// Overview returns the registry and history summary.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	return s.Dashboard.GetOverview(ctx)
}

// CheckHealth runs the store health check.
func (s *Service) CheckHealth(ctx context.Context) (*StoreHealth, error) {
	return s.Health.Check(ctx)
}

// Refresh reloads the registry and history for the presentation layer.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	wells, err := s.Wells.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.History.List(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Wells: wells, History: history}, nil
}
