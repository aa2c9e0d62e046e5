// Package cli — calibrate.go implements the "cardpunch calibrate" command.
//
// The calibrate command writes the alignment sheet used to line up a
// printer or punch with the card grid. Without --machine it draws the
// fixed 80x12 reference card.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/printer"
	"github.com/mmr-tortoise/cardpunch/internal/raster"
	"github.com/mmr-tortoise/cardpunch/internal/render"
)

// calibrateFlags holds the flag values for the calibrate command.
type calibrateFlags struct {
	// machine draws the pattern on this profile's card; empty means the
	// reference card.
	machine string

	format string
	dpi    float64
	output string
}

// NewCalibrateCommand creates the "calibrate" cobra command.
func NewCalibrateCommand() *cobra.Command {
	flags := &calibrateFlags{}

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Write the calibration sheet",
		Long: `Write the calibration sheet: top and bottom rows and first and last
columns fully punched, a diagonal across the grid, and crosshairs on the
card corners.

Examples:
  cardpunch calibrate
  cardpunch calibrate --machine stub-40 -o stub.svg
  cardpunch calibrate --format png --dpi 300`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runCalibrate(flags, cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVarP(&flags.machine, "machine", "m", "", "Draw on this machine's card instead of the reference card")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "svg", "Output format: svg, png")
	cmd.Flags().Float64Var(&flags.dpi, "dpi", raster.DefaultDPI, "PNG resolution in dots per inch")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", `Output path, "-" for stdout (default: calibrate.<format>)`)

	return cmd
}

// runCalibrate is the main logic function for the calibrate command.
func runCalibrate(flags *calibrateFlags, stdout io.Writer, p *printer.Printer) error {
	format, err := ParseOutputFormat(flags.format)
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidRequest, "invalid --format", err)
	}

	e, err := loadEngine()
	if err != nil {
		return err
	}

	doc, err := e.Calibrate(flags.machine)
	if err != nil {
		return model.WrapEngineError("failed to draw calibration sheet", err)
	}

	output := flags.output
	if output == "" {
		output = fmt.Sprintf("calibrate.%s", format)
	}
	if err := saveDocument(output, stdout, doc, format, flags.dpi); err != nil {
		return err
	}

	machineID := flags.machine
	if machineID == "" {
		machineID = "reference"
	}
	return reportDrawing(output, p, drawingResult{
		Output:  output,
		Format:  format.String(),
		Machine: machineID,
		Cards:   1,
		Punches: doc.Count(render.KindPunch),
	})
}
