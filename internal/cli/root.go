// Package cli implements the cobra-based CLI commands for cardpunch.
//
// Each subcommand (generate, calibrate, machines, estimate, serve) is
// defined in its own file within this package. This file defines the root
// command that serves as the parent for all subcommands and handles global
// flags.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/cardpunch/internal/engine"
	"github.com/mmr-tortoise/cardpunch/internal/machine"
	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/printer"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON format for machine consumption.
	// When false (default), output uses human-readable text format.
	jsonOutput bool

	// verbose enables detailed logging output for debugging.
	// When true, additional information about operations is printed to stderr.
	verbose bool

	// machinesFile is an optional YAML or JSONC machine table merged over
	// the built-in profiles.
	machinesFile string

	// noColor disables colored text output even on a terminal.
	noColor bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action. It only provides
// help text and global flags; the subcommands do the work.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cardpunch",
		Short: "Encode files as punch-card drawings",
		Long: `cardpunch encodes arbitrary bytes as punched holes on historical card
formats and draws the result as SVG or PNG, ready to print and punch.

Each machine profile fixes the card geometry and the byte-to-hole policy
(IBM 029 keypunch code, one byte per column, or a dense bit stream).
Payloads that do not fit on one card spill onto cards stacked below it.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				printer.SetColor(false)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&machinesFile, "machines", "",
		"Extra machine table (.yaml, .yml, .json or .jsonc) merged over the built-in profiles")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewGenerateCommand())
	rootCmd.AddCommand(NewCalibrateCommand())
	rootCmd.AddCommand(NewMachinesCommand())
	rootCmd.AddCommand(NewEstimateCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		code, message, underlying := describeError(err)
		printError(os.Stderr, message, underlying)
		os.Exit(int(code))
	}
}

// describeError picks the exit code and message for an error returned by a
// command. CLIError carries its own code; bare engine errors map by kind;
// anything else exits with code 1.
func describeError(err error) (model.ExitCode, string, error) {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code, cliErr.Message, cliErr.Err
	}
	var ee *model.EngineError
	if errors.As(err, &ee) {
		return model.ExitCodeFor(err), "request failed", err
	}
	return model.ExitGeneralError, err.Error(), nil
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"message": message,
		}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		var ee *model.EngineError
		if errors.As(underlying, &ee) {
			errObj["kind"] = ee.Kind.String()
			if ee.Field != "" {
				errObj["field"] = ee.Field
			}
		}
		// stdout is reserved for successful command output.
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	explanation := ""
	if underlying != nil {
		explanation = underlying.Error()
	}
	printer.New(io.Discard, w).Error(message, explanation, suggestionsFor(underlying))
}

// suggestionsFor returns follow-up hints for well-known failure kinds.
func suggestionsFor(err error) []string {
	switch model.KindOf(err) {
	case model.KindUnknownMachine:
		return []string{"Run 'cardpunch machines' to list the available profiles."}
	case model.KindPayloadTooLarge:
		return []string{
			"Stack more cards with --repeat.",
			"Pick a denser profile such as ibm-80-stream.",
		}
	default:
		return nil
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
// This is used throughout the CLI for debug/trace output that helps
// users understand what operations are being performed.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// loadEngine builds the engine from the built-in machine table, merged
// with --machines when given. Table problems exit as invalid requests;
// an unreadable file exits as an I/O error.
func loadEngine() (*engine.Engine, error) {
	reg, err := machine.Open(machinesFile)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, model.WrapCLIError(model.ExitIOError, "failed to load machine table", err)
		}
		return nil, model.WrapCLIError(model.ExitInvalidRequest, "invalid machine table", err)
	}
	if machinesFile != "" {
		VerboseLog("Loaded machine table %s (%d profiles)", machinesFile, reg.Len())
	}

	e, err := engine.New(reg)
	if err != nil {
		return nil, model.WrapEngineError("invalid machine table", err)
	}
	return e, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
