package core

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/calcvol/calcvol/internal/model"
)

// Autocomplete defaults.
const (
	DefaultSuggestMinChars = 2
	DefaultSuggestLimit    = 10
)

// Suggest returns autocomplete candidates for a partially typed well name.
// Short terms yield nothing. Results are deduplicated by From and capped.
func (s *Service) Suggest(ctx context.Context, term string) ([]model.WellSuggestion, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < s.suggestMinChars {
		return []model.WellSuggestion{}, nil
	}

	segments, err := s.Wells.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return dedupeSuggestions(segments, s.suggestLimit), nil
}

func dedupeSuggestions(segments []*model.WellSegment, limit int) []model.WellSuggestion {
	seen := make(map[string]bool, len(segments))
	suggestions := []model.WellSuggestion{}
	for _, seg := range segments {
		if seen[seg.From] {
			continue
		}
		seen[seg.From] = true
		suggestions = append(suggestions, model.WellSuggestion{
			From:         seg.From,
			To:           seg.To,
			LengthMeters: seg.LengthMeters,
		})
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions
}
