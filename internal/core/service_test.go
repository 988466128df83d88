package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/calcvol/calcvol/internal/model"
)

var fixedNow = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func newTestService(t *testing.T, opts Options) (*Service, *Store) {
	t.Helper()
	store := newTestStore(t)
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return NewService(store, nil, opts, nil), store
}

func TestService_Calculate(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	result, err := svc.Calculate(ctx, 1500, 1, 2, "PIR-001")
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.VolumeLiters != 3028.5 || result.VolumeBarrels != 19.05 {
		t.Errorf("unexpected volume %v L / %v bbl", result.VolumeLiters, result.VolumeBarrels)
	}
	if result.PipeTypeLabel != "Tubo (2 3/8)" || result.OperationTypeLabel != "Passagem de Pig" {
		t.Errorf("unexpected labels %q / %q", result.PipeTypeLabel, result.OperationTypeLabel)
	}
	if result.Date != "05/03/2024 14:07:09" {
		t.Errorf("unexpected date %q", result.Date)
	}
	if result.ID == "" {
		t.Error("recorded result should have an id")
	}

	history, err := svc.GetHistory(ctx)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(history) != 1 || history[0].ID != result.ID {
		t.Errorf("expected the calculation in history, got %d entries", len(history))
	}
}

func TestService_CalculateValidation(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	cases := []struct {
		name     string
		distance float64
		pipe     int
		op       int
		well     string
	}{
		{"missing well", 100, 1, 1, "  "},
		{"zero distance", 0, 1, 1, "PIR-001"},
		{"unknown pipe", 100, 42, 1, "PIR-001"},
		{"unknown operation", 100, 1, 42, "PIR-001"},
	}
	for _, tc := range cases {
		result, err := svc.Calculate(ctx, tc.distance, tc.pipe, tc.op, tc.well)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
		if result != nil {
			t.Errorf("%s: expected no result", tc.name)
		}
	}

	count, err := svc.History.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("failed calculations must not be recorded, got %d", count)
	}
}

func TestService_CalculateSurvivesRecordFailure(t *testing.T) {
	svc, store := newTestService(t, Options{})
	store.Close()

	result, err := svc.Calculate(context.Background(), 1500, 1, 1, "PIR-001")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if result == nil {
		t.Fatal("result must be returned even when recording fails")
	}
	if result.VolumeLiters != 3028.5 {
		t.Errorf("unexpected volume %v", result.VolumeLiters)
	}
}

func TestService_DateLayoutAndLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	svc, _ := newTestService(t, Options{DateLayout: "2006-01-02 15:04", Location: loc})

	result, err := svc.Calculate(context.Background(), 10, 1, 1, "PIR-001")
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.Date != "2024-03-05 11:07" {
		t.Errorf("unexpected date %q", result.Date)
	}
}

func TestService_Suggest(t *testing.T) {
	svc, _ := newTestService(t, Options{SuggestLimit: 3})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := svc.RegisterWell(ctx, &model.WellSegment{
			From: fmt.Sprintf("PIR-%03d", i), To: "SAT-A", DiameterCode: 2, LengthMeters: float64(100 * i),
		}); err != nil {
			t.Fatalf("failed to register: %v", err)
		}
	}

	short, err := svc.Suggest(ctx, "p")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if len(short) != 0 {
		t.Errorf("single-character term should yield nothing, got %d", len(short))
	}

	got, err := svc.Suggest(ctx, "pi")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions (limit), got %d", len(got))
	}
	if got[0].From != "PIR-001" || got[0].To != "SAT-A" || got[0].LengthMeters != 100 {
		t.Errorf("unexpected first suggestion %+v", got[0])
	}
}

func TestDedupeSuggestions(t *testing.T) {
	segments := []*model.WellSegment{
		{From: "PIR-001", To: "A", LengthMeters: 1},
		{From: "PIR-001", To: "B", LengthMeters: 2},
		{From: "PIR-002", To: "C", LengthMeters: 3},
	}
	got := dedupeSuggestions(segments, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].To != "A" {
		t.Errorf("first occurrence should win, got %+v", got[0])
	}
}

func TestService_SeedWells(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	segments, err := DecodeSeed(strings.NewReader(`[
		{"de": "pir-001", "para": "sat-a", "diam": 2, "comp": 1200},
		{"de": "PIR-001", "para": "sat-b", "diam": 2, "comp": 800},
		{"de": "PIR-002", "para": "", "diam": 3, "comp": 500},
		{"de": "PIR-003", "para": "sat-c", "diam": 4, "comp": 300}
	]`))
	if err != nil {
		t.Fatalf("failed to decode seed: %v", err)
	}

	n, err := svc.SeedWells(ctx, segments)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 seeded (duplicate and invalid skipped), got %d", n)
	}

	// A non-empty registry is never reseeded
	n, err = svc.SeedWells(ctx, []model.WellSegment{{From: "PIR-900", To: "X", DiameterCode: 2, LengthMeters: 1}})
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no rows seeded into a non-empty registry, got %d", n)
	}

	if _, err := DecodeSeed(strings.NewReader(`{not json`)); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad seed, got %v", err)
	}
}

func TestService_Refresh(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	snap, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(snap.Wells) != 0 || len(snap.History) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}

	if _, err := svc.RegisterWell(ctx, &model.WellSegment{From: "PIR-001", To: "SAT-A", DiameterCode: 2, LengthMeters: 100}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if _, err := svc.Calculate(ctx, 100, 1, 1, "PIR-001"); err != nil {
		t.Fatalf("calculate failed: %v", err)
	}

	snap, err = svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(snap.Wells) != 1 || len(snap.History) != 1 {
		t.Errorf("expected 1 well and 1 calculation, got %d and %d", len(snap.Wells), len(snap.History))
	}
}

func TestService_OverviewAndHealth(t *testing.T) {
	svc, _ := newTestService(t, Options{HistoryCapacity: 10})
	ctx := context.Background()

	if _, err := svc.RegisterWell(ctx, &model.WellSegment{From: "PIR-001", To: "SAT-A", DiameterCode: 2, LengthMeters: 1500}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	for _, pipe := range []int{1, 1, 2} {
		if _, err := svc.Calculate(ctx, 1500, pipe, 1, "PIR-001"); err != nil {
			t.Fatalf("calculate failed: %v", err)
		}
	}

	o, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if o.Wells != 1 || o.TotalLengthMeters != 1500 {
		t.Errorf("unexpected registry summary %d / %v", o.Wells, o.TotalLengthMeters)
	}
	if o.Calculations != 3 || o.HistoryCapacity != 10 {
		t.Errorf("unexpected history summary %d/%d", o.Calculations, o.HistoryCapacity)
	}
	// 3028.5 + 3028.5 + 4530
	if o.TotalLiters != 10587 {
		t.Errorf("expected 10587 L, got %v", o.TotalLiters)
	}
	if len(o.Pipes) != 2 || o.Pipes[0].Calculations != 2 || o.Pipes[0].Liters != 6057 {
		t.Errorf("unexpected pipe usage %+v", o.Pipes)
	}
	if o.LastCalculation == nil {
		t.Error("last calculation should be set")
	}

	health, err := svc.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if !health.Healthy() {
		t.Errorf("expected a healthy store, got issues %v", health.Issues)
	}
	if health.Integrity != "ok" || health.SchemaVersion != SchemaVersion {
		t.Errorf("unexpected health %+v", health)
	}
}

func TestService_OverviewDuringWrites(t *testing.T) {
	svc, _ := newTestService(t, Options{HistoryCapacity: 5})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 20; i++ {
			if _, err := svc.Calculate(ctx, float64(10+i), 1, 1, "PIR-001"); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for i := 0; i < 20; i++ {
		o, err := svc.Overview(ctx)
		if err != nil {
			t.Fatalf("overview failed: %v", err)
		}
		if o.Calculations > 5 {
			t.Errorf("overview saw %d entries, capacity is 5", o.Calculations)
		}
		health, err := svc.CheckHealth(ctx)
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		if !health.Healthy() {
			t.Errorf("unexpected issues %v", health.Issues)
		}
	}

	if err := <-done; err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
}
