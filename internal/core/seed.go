package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/calcvol/calcvol/internal/model"
)

// SeedWells loads segments into an empty registry and returns how many
// were inserted. A registry that already has rows is left untouched.
// Invalid or duplicate seed rows are skipped with a warning.
func (s *Service) SeedWells(ctx context.Context, segments []model.WellSegment) (int, error) {
	count, err := s.Wells.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Debug("registry not empty, skipping seed", "wells", count)
		return 0, nil
	}

	inserted := 0
	for i := range segments {
		seg := segments[i]
		if _, err := s.Wells.Insert(ctx, &seg); err != nil {
			if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrValidation) {
				s.logger.Warn("skipping seed well", "index", i, "from", seg.From, "error", err)
				continue
			}
			return inserted, err
		}
		inserted++
	}

	s.logger.Info("registry seeded", "inserted", inserted, "skipped", len(segments)-inserted)
	return inserted, nil
}

// DecodeSeed reads a JSON array of well segments ({"de","para","diam","comp"}).
func DecodeSeed(r io.Reader) ([]model.WellSegment, error) {
	var segments []model.WellSegment
	if err := json.NewDecoder(r).Decode(&segments); err != nil {
		return nil, fmt.Errorf("%w: invalid seed file: %v", ErrValidation, err)
	}
	return segments, nil
}
