// Package catalog provides the static pipe type and operation type tables.
package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/calcvol/calcvol/internal/model"
)

// Catalog holds the pipe types and operation types known to the calculator.
// Members are immutable once registered.
type Catalog struct {
	pipes      map[int]model.PipeType
	operations map[int]model.OperationType
	diameters  []model.NominalDiameter
	mu         sync.RWMutex
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		pipes:      make(map[int]model.PipeType),
		operations: make(map[int]model.OperationType),
	}
}

// Default returns a catalog loaded with the canonical field tables.
func Default() *Catalog {
	c := New()
	for _, p := range defaultPipeTypes {
		if err := c.RegisterPipeType(p); err != nil {
			panic(err)
		}
	}
	for _, op := range defaultOperationTypes {
		if err := c.RegisterOperationType(op); err != nil {
			panic(err)
		}
	}
	c.diameters = append(c.diameters, defaultDiameters...)
	return c
}

// RegisterPipeType adds a pipe type.
func (c *Catalog) RegisterPipeType(p model.PipeType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(p.Label) == "" {
		return fmt.Errorf("pipe type %d has no label", p.ID)
	}
	if p.LitersPerMeter <= 0 || math.IsNaN(p.LitersPerMeter) || math.IsInf(p.LitersPerMeter, 0) {
		return fmt.Errorf("pipe type %d has invalid constant %v", p.ID, p.LitersPerMeter)
	}
	if _, exists := c.pipes[p.ID]; exists {
		return fmt.Errorf("pipe type with ID '%d' already registered", p.ID)
	}

	c.pipes[p.ID] = p
	return nil
}

// RegisterOperationType adds an operation type.
func (c *Catalog) RegisterOperationType(op model.OperationType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(op.Label) == "" {
		return fmt.Errorf("operation type %d has no label", op.ID)
	}
	if _, exists := c.operations[op.ID]; exists {
		return fmt.Errorf("operation type with ID '%d' already registered", op.ID)
	}

	c.operations[op.ID] = op
	return nil
}

// PipeType returns the pipe type by ID.
func (c *Catalog) PipeType(id int) (model.PipeType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.pipes[id]
	return p, ok
}

// OperationType returns the operation type by ID.
func (c *Catalog) OperationType(id int) (model.OperationType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	op, ok := c.operations[id]
	return op, ok
}

// PipeTypes returns all pipe types ordered by ID.
func (c *Catalog) PipeTypes() []model.PipeType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]model.PipeType, 0, len(c.pipes))
	for _, p := range c.pipes {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// OperationTypes returns all operation types ordered by ID.
func (c *Catalog) OperationTypes() []model.OperationType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]model.OperationType, 0, len(c.operations))
	for _, op := range c.operations {
		result = append(result, op)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// NominalDiameters returns the selectable diameters in display order.
func (c *Catalog) NominalDiameters() []model.NominalDiameter {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]model.NominalDiameter, len(c.diameters))
	copy(result, c.diameters)
	return result
}

// DiameterCode maps a nominal diameter ("2 3/8", "4", ...) to its stored code.
func (c *Catalog) DiameterCode(nominal string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	nominal = strings.TrimSpace(nominal)
	for _, d := range c.diameters {
		if d.Value == nominal {
			return d.Code, true
		}
	}
	return 0, false
}
