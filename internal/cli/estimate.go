// Package cli — estimate.go implements the "cardpunch estimate" command,
// the command-line form of the web capacity calculator.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/printer"
)

// estimateFlags holds the flag values for the estimate command.
type estimateFlags struct {
	machine string

	// bytes is the payload size to estimate for when no FILE is given.
	bytes int
}

// NewEstimateCommand creates the "estimate" cobra command.
func NewEstimateCommand() *cobra.Command {
	flags := &estimateFlags{}

	cmd := &cobra.Command{
		Use:   "estimate [FILE]",
		Short: "Report how many cards a payload needs",
		Long: `Report how many cards a payload needs on a machine. The size comes
from FILE when given, otherwise from --bytes.

Examples:
  cardpunch estimate --machine ibm-80 notes.txt
  cardpunch estimate --machine ibm-80-stream --bytes 8000`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runEstimate(flags, args, p)
		},
	}

	cmd.Flags().StringVarP(&flags.machine, "machine", "m", "ibm-80", "Machine profile id")
	cmd.Flags().IntVar(&flags.bytes, "bytes", 0, "Payload size in bytes")

	return cmd
}

// runEstimate is the main logic function for the estimate command.
func runEstimate(flags *estimateFlags, args []string, p *printer.Printer) error {
	size := flags.bytes
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to stat %s", args[0]), err)
		}
		size = int(info.Size())
	}

	e, err := loadEngine()
	if err != nil {
		return err
	}

	est, err := e.Estimate(flags.machine, size)
	if err != nil {
		return model.WrapEngineError("failed to estimate", err)
	}

	if IsJSONOutput() {
		return printJSON(p.Out, est)
	}
	p.Printf("%s\n", est)
	return nil
}
