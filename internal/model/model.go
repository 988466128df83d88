// Package model defines the core domain models for calcvol.
package model

import (
	"time"
)

// LitersPerBarrel is the field convention for converting liters to barrels (BBL).
const LitersPerBarrel = 159

// PipeType is a pipeline diameter class with its per-meter internal volume.
type PipeType struct {
	ID             int     `json:"id"`
	Label          string  `json:"label"`
	LitersPerMeter float64 `json:"liters_per_meter"`
}

// OperationType describes the field operation being performed.
// It is purely descriptive and has no numeric effect on a calculation.
type OperationType struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// NominalDiameter is a selectable pipe diameter for well registration.
type NominalDiameter struct {
	Label string `json:"label"`
	Value string `json:"value"` // e.g. "2 3/8"
	Code  int    `json:"code"`  // stored diameter code
}

// WellSegment is one named from -> to pipeline run.
// From is the unique business key; both ends are stored upper-cased.
type WellSegment struct {
	ID           int64     `json:"id"`
	From         string    `json:"de"`
	To           string    `json:"para"`
	DiameterCode int       `json:"diam"`
	LengthMeters float64   `json:"comp"`
	CreatedAt    time.Time `json:"created_at"`
}

// Volume is the output of the volume calculator.
type Volume struct {
	Liters  float64 `json:"liters"`
	Barrels float64 `json:"barrels"`
}

// Calculation is a computed volume together with the resolved inputs.
type Calculation struct {
	WellName       string        `json:"well_name"`
	DistanceMeters float64       `json:"distance"`
	PipeType       PipeType      `json:"pipe_type"`
	OperationType  OperationType `json:"operation_type"`
	Volume         Volume        `json:"volume"`
}

// CalculationResult is one entry of the calculation history.
// Labels are a denormalized snapshot taken at calculation time, so later
// edits to the registry or catalog never change a recorded entry.
type CalculationResult struct {
	ID                 string    `json:"id"`
	WellName           string    `json:"well_name"`
	DistanceMeters     float64   `json:"distance"`
	PipeTypeLabel      string    `json:"pipe_type"`
	OperationTypeLabel string    `json:"operation_type"`
	VolumeLiters       float64   `json:"volume_liters"`
	VolumeBarrels      float64   `json:"volume_bbl"`
	Date               string    `json:"date"`
	CreatedAt          time.Time `json:"created_at"`
}

// WellSuggestion is an autocomplete candidate for the well name field.
type WellSuggestion struct {
	From         string  `json:"de"`
	To           string  `json:"para"`
	LengthMeters float64 `json:"comp"`
}
