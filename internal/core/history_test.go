package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/calcvol/calcvol/internal/model"
)

func newResult(well string) *model.CalculationResult {
	return &model.CalculationResult{
		WellName:           well,
		DistanceMeters:     1500,
		PipeTypeLabel:      "Tubo (2 3/8)",
		OperationTypeLabel: "Passagem de Pig",
		VolumeLiters:       3028.5,
		VolumeBarrels:      19.05,
		Date:               "05/03/2024 14:07:09",
	}
}

func TestHistoryLog_AppendAndList(t *testing.T) {
	store := newTestStore(t)
	hl := NewHistoryLog(store.DB(), 0, nil)
	ctx := context.Background()

	if hl.Capacity() != DefaultHistoryCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultHistoryCapacity, hl.Capacity())
	}

	first := newResult("PIR-001")
	if _, err := hl.Append(ctx, first); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if first.ID == "" {
		t.Error("append should assign an id")
	}
	if first.CreatedAt.IsZero() {
		t.Error("append should set created_at")
	}

	second := newResult("PIR-002")
	if _, err := hl.Append(ctx, second); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if second.ID == first.ID {
		t.Error("ids must be unique")
	}

	list, err := hl.List(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].WellName != "PIR-002" || list[1].WellName != "PIR-001" {
		t.Errorf("expected most recent first, got %s, %s", list[0].WellName, list[1].WellName)
	}
	if list[1].VolumeBarrels != 19.05 || list[1].Date != "05/03/2024 14:07:09" {
		t.Errorf("entry not stored verbatim: %+v", list[1])
	}
}

func TestHistoryLog_EvictsOldest(t *testing.T) {
	store := newTestStore(t)
	hl := NewHistoryLog(store.DB(), 50, nil)
	ctx := context.Background()

	for i := 1; i <= 51; i++ {
		evicted, err := hl.Append(ctx, newResult(fmt.Sprintf("W-%02d", i)))
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
		want := 0
		if i == 51 {
			want = 1
		}
		if evicted != want {
			t.Errorf("append %d: expected %d evicted, got %d", i, want, evicted)
		}
	}

	list, err := hl.List(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(list))
	}
	if list[0].WellName != "W-51" {
		t.Errorf("expected newest W-51 first, got %s", list[0].WellName)
	}
	if list[49].WellName != "W-02" {
		t.Errorf("expected W-02 last, got %s", list[49].WellName)
	}
	for _, r := range list {
		if r.WellName == "W-01" {
			t.Error("oldest entry W-01 should have been evicted")
		}
	}
}

func TestHistoryLog_DeleteOneAndClear(t *testing.T) {
	store := newTestStore(t)
	hl := NewHistoryLog(store.DB(), 5, nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		r := newResult(fmt.Sprintf("W-%d", i))
		if _, err := hl.Append(ctx, r); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		ids = append(ids, r.ID)
	}

	removed, err := hl.DeleteOne(ctx, ids[1])
	if err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if !removed {
		t.Error("existing entry should be removed")
	}

	// Absent id is a no-op
	removed, err = hl.DeleteOne(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("delete of absent id failed: %v", err)
	}
	if removed {
		t.Error("absent id should report nothing removed")
	}

	list, err := hl.List(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 2 || list[0].ID != ids[2] || list[1].ID != ids[0] {
		t.Errorf("unexpected history after delete: %d entries", len(list))
	}

	n, err := hl.Clear(ctx)
	if err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
	count, err := hl.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty history, got %d", count)
	}
}

func TestHistoryLog_EntriesAreSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	wr := NewWellRegistry(store.DB(), nil)
	hl := NewHistoryLog(store.DB(), 0, nil)

	id, err := wr.Insert(ctx, &model.WellSegment{From: "PIR-001", To: "SAT-A", DiameterCode: 2, LengthMeters: 100})
	if err != nil {
		t.Fatalf("failed to insert well: %v", err)
	}
	if _, err := hl.Append(ctx, newResult("PIR-001")); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := wr.Delete(ctx, id); err != nil {
		t.Fatalf("failed to delete well: %v", err)
	}

	list, err := hl.List(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 1 || list[0].WellName != "PIR-001" {
		t.Error("history must survive deletion of the well")
	}
}

func TestHistoryLog_InsertionOrderIgnoresClock(t *testing.T) {
	store := newTestStore(t)
	hl := NewHistoryLog(store.DB(), 50, nil)
	ctx := context.Background()

	// A full history written while the clock was far ahead
	for i := 0; i < 50; i++ {
		_, err := store.DB().ExecContext(ctx, `
			INSERT INTO calculations (id, well_name, distance, pipe_type, operation_type, volume_liters, volume_bbl, date, created_at)
			VALUES (?, ?, 1, 'Tubo (2 3/8)', 'Passagem de Pig', 2.02, 0.01, '01/01/2099 00:00:00', '2099-01-01 00:00:00.000')
		`, fmt.Sprintf("future-%02d", i), fmt.Sprintf("OLD-%02d", i))
		if err != nil {
			t.Fatalf("failed to insert row %d: %v", i, err)
		}
	}

	latest := newResult("PIR-NEW")
	evicted, err := hl.Append(ctx, latest)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if evicted != 1 {
		t.Errorf("expected 1 evicted, got %d", evicted)
	}

	list, err := hl.List(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(list))
	}
	if list[0].ID != latest.ID {
		t.Errorf("the appended entry should be listed first, got %s", list[0].WellName)
	}
	for _, r := range list {
		if r.WellName == "OLD-00" {
			t.Error("the first-inserted entry should have been evicted")
		}
	}
}
