// Package cli implements the calcvol command-line interface.
// Built with cobra; every command is a thin adapter over core.Service:
// - No business rules in commands
// - Destructive actions require confirmation
package cli

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configDir  string
	configFile string
)

// rootCmd is the base command for calcvol.
var rootCmd = &cobra.Command{
	Use:   "calcvol",
	Short: "Pipeline volume calculator for paraffin removal and pig runs",
	Long: `calcvol computes pipeline volumes for thermal paraffin removal and pig
passage operations.

It provides:
  • Volume calculation in liters and barrels (1 bbl = 159 L)
  • A local registry of well segments (from → to, diameter, length)
  • A history of the last calculations (50 by default)

Data is kept in a local SQLite database, optionally SQLCipher-encrypted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Use alternate config directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "Read configuration from this file")

	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(wellsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pipesCmd)
	rootCmd.AddCommand(operationsCmd)
	rootCmd.AddCommand(diametersCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(rekeyCmd)

	calcCmd.Flags().String("well", "", "Well name")
	calcCmd.Flags().Float64("distance", 0, "Distance in meters")
	calcCmd.Flags().Int("pipe", 0, "Pipe type id (see 'calcvol pipes')")
	calcCmd.Flags().Int("operation", 0, "Operation type id (see 'calcvol operations')")
	calcCmd.Flags().Bool("no-record", false, "Do not save the result to history")

	for _, c := range []*cobra.Command{wellsAddCmd, wellsUpdateCmd} {
		c.Flags().String("from", "", "Well name (DE)")
		c.Flags().String("to", "", "Destination (PARA)")
		c.Flags().String("diam", "", "Nominal diameter, e.g. \"2 3/8\" or 4")
		c.Flags().Float64("length", 0, "Length in meters")
	}

	wellsCmd.AddCommand(wellsAddCmd)
	wellsCmd.AddCommand(wellsListCmd)
	wellsCmd.AddCommand(wellsSearchCmd)
	wellsCmd.AddCommand(wellsSuggestCmd)
	wellsCmd.AddCommand(wellsUpdateCmd)
	wellsCmd.AddCommand(wellsRmCmd)
	wellsCmd.AddCommand(wellsSeedCmd)

	rekeyCmd.Flags().String("new-passphrase", "", "New SQLCipher passphrase")
	rekeyCmd.MarkFlagRequired("new-passphrase")

	historyClearCmd.Flags().BoolP("force", "f", false, "Skip confirmation")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyRmCmd)
	historyCmd.AddCommand(historyClearCmd)
}

// getConfigDir returns the configuration directory path.
// First checks current directory for .calcvol, then falls back to user home.
func getConfigDir() string {
	if configDir != "" {
		return configDir
	}

	cwd, err := os.Getwd()
	if err == nil {
		localConfig := filepath.Join(cwd, ".calcvol")
		if _, err := os.Stat(localConfig); err == nil {
			return localConfig
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".calcvol"
	}
	return filepath.Join(home, ".calcvol")
}

// runWithEngine opens the engine for one command and closes it afterwards.
func runWithEngine(fn func(e *Engine) error) error {
	e, err := OpenEngine(getConfigDir(), configFile, verbose)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate the volume for a pipeline run",
	Long: `Calculate the volume of a pipeline run and save it to history.

liters  = distance × pipe constant (L/m)
barrels = liters / 159
Both are rounded to two decimals.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		well, _ := cmd.Flags().GetString("well")
		distance, _ := cmd.Flags().GetFloat64("distance")
		pipe, _ := cmd.Flags().GetInt("pipe")
		operation, _ := cmd.Flags().GetInt("operation")
		noRecord, _ := cmd.Flags().GetBool("no-record")
		return runWithEngine(func(e *Engine) error {
			return RunCalc(cmd.Context(), e, cmd.OutOrStdout(), CalcInput{
				Well:      well,
				Distance:  distance,
				PipeType:  pipe,
				Operation: operation,
				Record:    !noRecord,
			})
		})
	},
}

// Wells commands
var wellsCmd = &cobra.Command{
	Use:   "wells",
	Short: "Well registry commands",
}

var wellsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a well segment",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := wellInputFromFlags(cmd)
		return runWithEngine(func(e *Engine) error {
			return RunWellsAdd(cmd.Context(), e, cmd.OutOrStdout(), in)
		})
	},
}

var wellsListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List registered wells",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunWellsSearch(cmd.Context(), e, cmd.OutOrStdout(), "")
		})
	},
}

var wellsSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search wells by from or to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunWellsSearch(cmd.Context(), e, cmd.OutOrStdout(), args[0])
		})
	},
}

var wellsSuggestCmd = &cobra.Command{
	Use:   "suggest <term>",
	Short: "Autocomplete a well name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunWellsSuggest(cmd.Context(), e, cmd.OutOrStdout(), args[0])
		})
	},
}

var wellsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Overwrite a well segment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		in := wellInputFromFlags(cmd)
		return runWithEngine(func(e *Engine) error {
			return RunWellsUpdate(cmd.Context(), e, cmd.OutOrStdout(), id, in)
		})
	},
}

var wellsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a well segment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runWithEngine(func(e *Engine) error {
			return RunWellsRm(cmd.Context(), e, cmd.OutOrStdout(), id)
		})
	},
}

var wellsSeedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "Load wells from a JSON file into an empty registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunWellsSeed(cmd.Context(), e, cmd.OutOrStdout(), args[0])
		})
	},
}

// History commands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Calculation history commands",
}

var historyListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List past calculations, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunHistoryList(cmd.Context(), e, cmd.OutOrStdout())
		})
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete one calculation from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunHistoryRm(cmd.Context(), e, cmd.OutOrStdout(), args[0])
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole calculation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force && !ConfirmAction(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete the whole calculation history?") {
			return nil
		}
		return runWithEngine(func(e *Engine) error {
			return RunHistoryClear(cmd.Context(), e, cmd.OutOrStdout())
		})
	},
}

// Catalog commands
var pipesCmd = &cobra.Command{
	Use:   "pipes",
	Short: "List pipe types and their L/m constants",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunPipes(e, cmd.OutOrStdout())
		})
	},
}

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List operation types",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunOperations(e, cmd.OutOrStdout())
		})
	},
}

var diametersCmd = &cobra.Command{
	Use:   "diameters",
	Short: "List nominal diameters accepted by 'wells add'",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunDiameters(e, cmd.OutOrStdout())
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and registry status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(func(e *Engine) error {
			return RunStatus(cmd.Context(), e, cmd.OutOrStdout())
		})
	},
}

var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Re-encrypt the database with a new passphrase",
	Long: `Re-encrypt the database with a new passphrase.

The database must already be encrypted (database.passphrase or
CALCVOL_DATABASE_PASSPHRASE). Update the configuration afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		newPass, _ := cmd.Flags().GetString("new-passphrase")
		return runWithEngine(func(e *Engine) error {
			return RunRekey(cmd.Context(), e, cmd.OutOrStdout(), newPass)
		})
	},
}

func wellInputFromFlags(cmd *cobra.Command) WellInput {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	diam, _ := cmd.Flags().GetString("diam")
	length, _ := cmd.Flags().GetFloat64("length")
	return WellInput{From: from, To: to, Diameter: diam, Length: length}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errInvalidID(s)
	}
	return id, nil
}
