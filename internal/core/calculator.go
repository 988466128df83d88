package core

import (
	"math"
	"strings"

	"github.com/calcvol/calcvol/internal/catalog"
	"github.com/calcvol/calcvol/internal/model"
	"github.com/shopspring/decimal"
)

// volumePlaces is the number of decimals kept for liters and barrels.
const volumePlaces = 2

var litersPerBarrel = decimal.NewFromInt(model.LitersPerBarrel)

// Compute converts a distance over a pipe type into liters and barrels.
// Both values are rounded half away from zero to two decimals; barrels are
// derived from the unrounded liters.
func Compute(distanceMeters float64, pipe model.PipeType) (model.Volume, error) {
	if !isPositiveFinite(distanceMeters) {
		return model.Volume{}, validationErr("distance must be a positive number, got %v", distanceMeters)
	}
	if !isPositiveFinite(pipe.LitersPerMeter) {
		return model.Volume{}, validationErr("unrecognized pipe type %d", pipe.ID)
	}

	liters := decimal.NewFromFloat(distanceMeters).Mul(decimal.NewFromFloat(pipe.LitersPerMeter))
	barrels := liters.Div(litersPerBarrel)

	vol := model.Volume{
		Liters:  liters.Round(volumePlaces).InexactFloat64(),
		Barrels: barrels.Round(volumePlaces).InexactFloat64(),
	}
	if isNonFinite(vol.Liters) || isNonFinite(vol.Barrels) {
		return model.Volume{}, validationErr("distance %v is too large to compute a volume", distanceMeters)
	}
	return vol, nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !isNonFinite(v)
}

func isNonFinite(v float64) bool {
	return math.IsInf(v, 0) || math.IsNaN(v)
}

// Calculator resolves catalog identifiers and computes volumes.
type Calculator struct {
	catalog *catalog.Catalog
}

// NewCalculator creates a calculator over the given catalog.
func NewCalculator(c *catalog.Catalog) *Calculator {
	return &Calculator{catalog: c}
}

// Calculate resolves pipeTypeID and operationTypeID and computes the volume.
// wellName is carried through for labelling only and may be empty.
func (c *Calculator) Calculate(distanceMeters float64, pipeTypeID, operationTypeID int, wellName string) (*model.Calculation, error) {
	wellName = strings.TrimSpace(wellName)

	pipe, ok := c.catalog.PipeType(pipeTypeID)
	if !ok {
		return nil, validationErr("unknown pipe type %d", pipeTypeID)
	}
	op, ok := c.catalog.OperationType(operationTypeID)
	if !ok {
		return nil, validationErr("unknown operation type %d", operationTypeID)
	}

	volume, err := Compute(distanceMeters, pipe)
	if err != nil {
		return nil, err
	}

	return &model.Calculation{
		WellName:       wellName,
		DistanceMeters: distanceMeters,
		PipeType:       pipe,
		OperationType:  op,
		Volume:         volume,
	}, nil
}
