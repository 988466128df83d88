// Package cli provides the engine integration for the calcvol CLI.
// This file contains the engine setup and command implementations.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/calcvol/calcvol/internal/catalog"
	"github.com/calcvol/calcvol/internal/config"
	"github.com/calcvol/calcvol/internal/core"
	"github.com/calcvol/calcvol/internal/model"
)

// Engine holds the calcvol core components for one command run.
type Engine struct {
	Config    *config.Config
	Store     *core.Store
	Service   *core.Service
	Logger    *slog.Logger
	ConfigDir string
}

// OpenEngine loads configuration from cfgDir and opens the store.
func OpenEngine(cfgDir, cfgFile string, debug bool) (*Engine, error) {
	cfg, err := config.Load(cfgDir, cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	e, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	e.ConfigDir = cfgDir
	return e, nil
}

// NewEngine opens and initializes the store described by cfg.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	store, err := core.OpenStore(cfg.Database.Path, cfg.Database.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	loc, err := cfg.History.Location()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid history.timezone: %w", err)
	}

	svc := core.NewService(store, catalog.Default(), core.Options{
		HistoryCapacity: cfg.History.Capacity,
		DateLayout:      cfg.History.DateLayout,
		Location:        loc,
		SuggestMinChars: cfg.Suggest.MinChars,
		SuggestLimit:    cfg.Suggest.Limit,
	}, logger)

	return &Engine{
		Config:  cfg,
		Store:   store,
		Service: svc,
		Logger:  logger,
	}, nil
}

// Close releases the store.
func (e *Engine) Close() error {
	return e.Store.Close()
}

// ConfirmAction prompts the user for confirmation.
func ConfirmAction(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(in)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes" || response == "s" || response == "sim"
}

func errInvalidID(s string) error {
	return fmt.Errorf("invalid id %q: must be an integer", s)
}

// --- Command Implementations ---

// CalcInput carries the calc command flags.
type CalcInput struct {
	Well      string
	Distance  float64
	PipeType  int
	Operation int
	Record    bool
}

// RunCalc computes a volume and, unless disabled, records it in history.
func RunCalc(ctx context.Context, e *Engine, w io.Writer, in CalcInput) error {
	if !in.Record {
		calc, err := e.Service.CalculateVolume(in.Distance, in.PipeType, in.Operation, in.Well)
		if err != nil {
			return err
		}
		printCalculation(w, calc.WellName, calc.DistanceMeters, calc.PipeType.Label,
			calc.OperationType.Label, calc.Volume.Liters, calc.Volume.Barrels, "")
		return nil
	}

	result, err := e.Service.Calculate(ctx, in.Distance, in.PipeType, in.Operation, in.Well)
	if result == nil {
		return err
	}

	printCalculation(w, result.WellName, result.DistanceMeters, result.PipeTypeLabel,
		result.OperationTypeLabel, result.VolumeLiters, result.VolumeBarrels, result.Date)

	if err != nil {
		if errors.Is(err, core.ErrPersistence) {
			fmt.Fprintln(w, "\nWarning: calculation done, but it could not be saved to history.")
			return nil
		}
		return err
	}
	fmt.Fprintf(w, "\nSaved to history (%s)\n", result.ID)
	return nil
}

func printCalculation(w io.Writer, well string, distance float64, pipe, operation string, liters, barrels float64, date string) {
	fmt.Fprintln(w, "Calculation Result:")
	fmt.Fprintln(w, "─────────────────────────────────────────────")
	if well != "" {
		fmt.Fprintf(w, "  Well:       %s\n", well)
	}
	fmt.Fprintf(w, "  Distance:   %s m\n", formatNumber(distance))
	fmt.Fprintf(w, "  Pipe:       %s\n", pipe)
	fmt.Fprintf(w, "  Operation:  %s\n", operation)
	fmt.Fprintf(w, "  Volume:     %.2f L\n", liters)
	fmt.Fprintf(w, "              %.2f bbl\n", barrels)
	if date != "" {
		fmt.Fprintf(w, "  Date:       %s\n", date)
	}
}

// WellInput carries the wells add/update flags.
type WellInput struct {
	From     string
	To       string
	Diameter string
	Length   float64
}

func (in WellInput) segment(cat *catalog.Catalog) (*model.WellSegment, error) {
	code, err := resolveDiameter(cat, in.Diameter)
	if err != nil {
		return nil, err
	}
	return &model.WellSegment{
		From:         in.From,
		To:           in.To,
		DiameterCode: code,
		LengthMeters: in.Length,
	}, nil
}

// resolveDiameter accepts a nominal diameter from the catalog or a bare
// positive integer code.
func resolveDiameter(cat *catalog.Catalog, diameter string) (int, error) {
	diameter = strings.TrimSpace(diameter)
	if diameter == "" {
		return 0, fmt.Errorf("%w: diameter is required", core.ErrValidation)
	}
	if code, ok := cat.DiameterCode(diameter); ok {
		return code, nil
	}
	code, err := strconv.Atoi(diameter)
	if err != nil || code <= 0 {
		return 0, fmt.Errorf("%w: unknown diameter %q (see 'calcvol diameters')", core.ErrValidation, diameter)
	}
	return code, nil
}

// RunWellsAdd registers a well segment.
func RunWellsAdd(ctx context.Context, e *Engine, w io.Writer, in WellInput) error {
	seg, err := in.segment(e.Service.Catalog)
	if err != nil {
		return err
	}

	id, err := e.Service.RegisterWell(ctx, seg)
	if errors.Is(err, core.ErrDuplicate) {
		return fmt.Errorf("well %s is already registered", seg.From)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Well registered: %s → %s (id %d)\n", seg.From, seg.To, id)
	return nil
}

// RunWellsUpdate overwrites a well segment.
func RunWellsUpdate(ctx context.Context, e *Engine, w io.Writer, id int64, in WellInput) error {
	seg, err := in.segment(e.Service.Catalog)
	if err != nil {
		return err
	}
	if err := e.Service.UpdateWell(ctx, id, seg); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Well %d updated: %s → %s\n", id, seg.From, seg.To)
	return nil
}

// RunWellsRm deletes a well segment.
func RunWellsRm(ctx context.Context, e *Engine, w io.Writer, id int64) error {
	if err := e.Service.DeleteWell(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Well %d deleted\n", id)
	return nil
}

// RunWellsSearch lists wells matching term, or all wells for a blank term.
func RunWellsSearch(ctx context.Context, e *Engine, w io.Writer, term string) error {
	wells, err := e.Service.SearchWells(ctx, term)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Wells:")
	fmt.Fprintln(w, "ID     From             To               Diam   Length")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────────")
	for _, seg := range wells {
		fmt.Fprintf(w, "%-6d %-16s %-16s %-6s %s m\n",
			seg.ID, truncate(seg.From, 16), truncate(seg.To, 16),
			strconv.Itoa(seg.DiameterCode)+`"`, formatNumber(seg.LengthMeters))
	}
	if len(wells) == 0 {
		fmt.Fprintln(w, "  (no wells)")
	}
	fmt.Fprintf(w, "\nTotal: %d wells\n", len(wells))
	return nil
}

// RunWellsSuggest prints autocomplete candidates for term.
func RunWellsSuggest(ctx context.Context, e *Engine, w io.Writer, term string) error {
	suggestions, err := e.Service.Suggest(ctx, term)
	if err != nil {
		return err
	}
	for _, s := range suggestions {
		fmt.Fprintf(w, "%s → %s (%s m)\n", s.From, s.To, formatNumber(s.LengthMeters))
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "  (no suggestions)")
	}
	return nil
}

// RunWellsSeed loads a JSON seed file into an empty registry.
func RunWellsSeed(ctx context.Context, e *Engine, w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	segments, err := core.DecodeSeed(f)
	if err != nil {
		return err
	}
	n, err := e.Service.SeedWells(ctx, segments)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(w, "Registry already has wells; nothing seeded.")
		return nil
	}
	fmt.Fprintf(w, "✓ Seeded %d of %d wells\n", n, len(segments))
	return nil
}

// RunHistoryList prints the history, most recent first.
func RunHistoryList(ctx context.Context, e *Engine, w io.Writer) error {
	history, err := e.Service.GetHistory(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Calculation History (%d/%d):\n", len(history), e.Service.History.Capacity())
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────────")
	for _, r := range history {
		fmt.Fprintf(w, "%s  %s\n", r.Date, r.ID)
		fmt.Fprintf(w, "  %s · %s m · %s\n", r.WellName, formatNumber(r.DistanceMeters), r.PipeTypeLabel)
		fmt.Fprintf(w, "  %s\n", r.OperationTypeLabel)
		fmt.Fprintf(w, "  %.2f L · %.2f bbl\n\n", r.VolumeLiters, r.VolumeBarrels)
	}
	if len(history) == 0 {
		fmt.Fprintln(w, "  (no calculations)")
	}
	return nil
}

// RunHistoryRm deletes one history entry.
func RunHistoryRm(ctx context.Context, e *Engine, w io.Writer, id string) error {
	removed, err := e.Service.DeleteHistoryEntry(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(w, "No calculation with id %s\n", id)
		return nil
	}
	fmt.Fprintf(w, "✓ Calculation %s deleted\n", id)
	return nil
}

// RunHistoryClear deletes the whole history.
func RunHistoryClear(ctx context.Context, e *Engine, w io.Writer) error {
	n, err := e.Service.ClearHistory(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Removed %d calculations\n", n)
	return nil
}

// RunPipes lists pipe types.
func RunPipes(e *Engine, w io.Writer) error {
	fmt.Fprintln(w, "Pipe Types:")
	fmt.Fprintln(w, "ID  Label              L/m")
	fmt.Fprintln(w, "───────────────────────────────")
	for _, p := range e.Service.Catalog.PipeTypes() {
		fmt.Fprintf(w, "%-3d %-18s %.3f\n", p.ID, p.Label, p.LitersPerMeter)
	}
	return nil
}

// RunOperations lists operation types.
func RunOperations(e *Engine, w io.Writer) error {
	fmt.Fprintln(w, "Operation Types:")
	for _, op := range e.Service.Catalog.OperationTypes() {
		fmt.Fprintf(w, "%-3d %s\n", op.ID, op.Label)
	}
	return nil
}

// RunDiameters lists nominal diameters.
func RunDiameters(e *Engine, w io.Writer) error {
	fmt.Fprintln(w, "Nominal Diameters:")
	for _, d := range e.Service.Catalog.NominalDiameters() {
		fmt.Fprintf(w, "%-8s %-16s code %d\n", d.Value, d.Label, d.Code)
	}
	return nil
}

// RunStatus shows store, registry and history status.
func RunStatus(ctx context.Context, e *Engine, w io.Writer) error {
	health, err := e.Service.CheckHealth(ctx)
	if err != nil {
		return err
	}
	o, err := e.Service.Overview(ctx)
	if err != nil {
		return err
	}

	encryption := "off"
	if e.Store.IsEncrypted() {
		encryption = "SQLCipher"
	}

	fmt.Fprintln(w, "calcvol Status")
	fmt.Fprintln(w, "═══════════════════════════════════════")
	fmt.Fprintf(w, "Database:    %s\n", e.Store.Path())
	fmt.Fprintf(w, "Schema:      v%s\n", health.SchemaVersion)
	fmt.Fprintf(w, "Encryption:  %s\n", encryption)
	fmt.Fprintf(w, "Integrity:   %s\n", health.Integrity)
	for _, issue := range health.Issues {
		fmt.Fprintf(w, "  ⚠ %s\n", issue)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Wells:       %d (%s m registered)\n", o.Wells, formatNumber(o.TotalLengthMeters))
	fmt.Fprintf(w, "History:     %d/%d\n", o.Calculations, o.HistoryCapacity)
	fmt.Fprintf(w, "Volume:      %.2f L · %.2f bbl\n", o.TotalLiters, o.TotalBarrels)
	if o.LastCalculation != nil {
		loc, err := e.Config.History.Location()
		if err != nil {
			return fmt.Errorf("invalid history.timezone: %w", err)
		}
		fmt.Fprintf(w, "Last calc:   %s\n", o.LastCalculation.In(loc).Format(e.Config.History.DateLayout))
	}
	if len(o.Pipes) > 0 {
		fmt.Fprintln(w, "\nBy pipe type:")
		for _, p := range o.Pipes {
			fmt.Fprintf(w, "  %-18s %3d calcs  %.2f L\n", p.PipeTypeLabel, p.Calculations, p.Liters)
		}
	}
	return nil
}

// RunRekey changes the SQLCipher passphrase.
func RunRekey(ctx context.Context, e *Engine, w io.Writer, newPassphrase string) error {
	if err := e.Store.ChangePassphrase(ctx, newPassphrase); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ Passphrase changed. Update database.passphrase before the next run.")
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
