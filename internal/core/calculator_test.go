package core

import (
	"errors"
	"math"
	"testing"

	"github.com/calcvol/calcvol/internal/catalog"
	"github.com/calcvol/calcvol/internal/model"
)

func TestCompute_KnownValues(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name     string
		distance float64
		pipeID   int
		liters   float64
		barrels  float64
	}{
		{"2 3/8 over 1500 m", 1500, 1, 3028.5, 19.05},
		{"2 7/8 over 250 m", 250, 2, 755, 4.75},
		{"3 1/2 over 1000 m", 1000, 3, 4531, 28.5},
		{"fractional distance", 0.5, 1, 1.01, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipe, ok := cat.PipeType(tt.pipeID)
			if !ok {
				t.Fatalf("pipe type %d missing from catalog", tt.pipeID)
			}
			vol, err := Compute(tt.distance, pipe)
			if err != nil {
				t.Fatalf("compute failed: %v", err)
			}
			if vol.Liters != tt.liters {
				t.Errorf("expected %v L, got %v", tt.liters, vol.Liters)
			}
			if vol.Barrels != tt.barrels {
				t.Errorf("expected %v bbl, got %v", tt.barrels, vol.Barrels)
			}
		})
	}
}

func TestCompute_Linear(t *testing.T) {
	pipe := model.PipeType{ID: 1, Label: "Tubo (2 3/8)", LitersPerMeter: 2.019}

	one, err := Compute(100, pipe)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	two, err := Compute(200, pipe)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if math.Abs(two.Liters-2*one.Liters) > 0.011 {
		t.Errorf("volume not linear in distance: %v vs 2*%v", two.Liters, one.Liters)
	}
}

func TestCompute_RejectsBadDistance(t *testing.T) {
	pipe := model.PipeType{ID: 1, Label: "Tubo (2 3/8)", LitersPerMeter: 2.019}

	for _, d := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		if _, err := Compute(d, pipe); !errors.Is(err, ErrValidation) {
			t.Errorf("distance %v: expected ErrValidation, got %v", d, err)
		}
	}
}

func TestCalculator_Calculate(t *testing.T) {
	calc := NewCalculator(catalog.Default())

	result, err := calc.Calculate(1500, 1, 2, "  PIR-001 ")
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.WellName != "PIR-001" {
		t.Errorf("expected trimmed well name, got %q", result.WellName)
	}
	if result.OperationType.Label != "Passagem de Pig" {
		t.Errorf("unexpected operation label %q", result.OperationType.Label)
	}
	if result.Volume.Liters != 3028.5 || result.Volume.Barrels != 19.05 {
		t.Errorf("unexpected volume %+v", result.Volume)
	}

	// The operation type never changes the volume
	for _, op := range []int{1, 3, 7} {
		other, err := calc.Calculate(1500, 1, op, "")
		if err != nil {
			t.Fatalf("calculate with operation %d failed: %v", op, err)
		}
		if other.Volume != result.Volume {
			t.Errorf("operation %d changed the volume: %+v", op, other.Volume)
		}
	}
}

func TestCalculator_UnknownIDs(t *testing.T) {
	calc := NewCalculator(catalog.Default())

	if _, err := calc.Calculate(100, 99, 1, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown pipe type: expected ErrValidation, got %v", err)
	}
	if _, err := calc.Calculate(100, 1, 0, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown operation type: expected ErrValidation, got %v", err)
	}
}

func TestCompute_RejectsOverflow(t *testing.T) {
	pipe := model.PipeType{ID: 3, Label: "Tubo (3 1/2)", LitersPerMeter: 4.531}

	vol, err := Compute(1e308, pipe)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v (%+v)", err, vol)
	}
	if math.IsInf(vol.Liters, 0) || math.IsInf(vol.Barrels, 0) {
		t.Error("no infinite volume may be returned")
	}
}
