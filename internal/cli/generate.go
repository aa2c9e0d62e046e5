// Package cli — generate.go implements the "cardpunch generate" command.
//
// The generate command reads a file (or stdin), encodes it onto the
// selected machine's cards and writes the drawing as SVG or PNG.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/printer"
	"github.com/mmr-tortoise/cardpunch/internal/raster"
	"github.com/mmr-tortoise/cardpunch/internal/render"
	"github.com/mmr-tortoise/cardpunch/internal/server"
)

// defaultMaxSize is the input ceiling, matching the web form's limit.
const defaultMaxSize = 8000

// generateFlags holds the flag values for the generate command.
type generateFlags struct {
	// machine is the profile id to encode onto.
	machine string

	// repeat is the number of cards stacked vertically.
	repeat int

	// maxRepeat caps repeat, matching the web form's limit by default.
	maxRepeat int

	// blank draws an unpunched template and ignores the input.
	blank bool

	// fill draws punches as solid shapes.
	fill bool

	// format is "svg" or "png".
	format string

	// dpi is the PNG resolution.
	dpi float64

	// output is the destination path; "-" writes to stdout.
	output string

	// maxSize is the largest accepted input in bytes.
	maxSize int64
}

// NewGenerateCommand creates the "generate" cobra command.
func NewGenerateCommand() *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate [FILE|-]",
		Short: "Encode a file as a punch-card drawing",
		Long: `Encode a file onto punch cards and write the drawing.

The input is read from FILE, or from stdin when FILE is "-" or omitted.
When the payload does not fit on one card it continues on the next card
down, up to --repeat cards.

Examples:
  cardpunch generate notes.txt
  cardpunch generate --machine ibm-80-stream --repeat 4 firmware.bin
  cardpunch generate --blank --repeat 3 -o template.svg
  echo HELLO | cardpunch generate --fill --format png -o - > card.png`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runGenerate(flags, input, cmd.InOrStdin(), cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVarP(&flags.machine, "machine", "m", "ibm-80", "Machine profile id (see 'cardpunch machines')")
	cmd.Flags().IntVarP(&flags.repeat, "repeat", "r", 1, "Number of cards stacked vertically")
	cmd.Flags().IntVar(&flags.maxRepeat, "max-repeat", server.DefaultMaxRepeat, "Largest accepted --repeat")
	cmd.Flags().BoolVar(&flags.blank, "blank", false, "Draw an unpunched template, ignoring the input")
	cmd.Flags().BoolVar(&flags.fill, "fill", false, "Draw punches as solid shapes")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "svg", "Output format: svg, png")
	cmd.Flags().Float64Var(&flags.dpi, "dpi", raster.DefaultDPI, "PNG resolution in dots per inch")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", `Output path, "-" for stdout (default: punchcard-<unix time>.<format>)`)
	cmd.Flags().Int64Var(&flags.maxSize, "max-size", defaultMaxSize, "Largest accepted input in bytes")

	return cmd
}

// runGenerate is the main logic function for the generate command.
func runGenerate(flags *generateFlags, input string, stdin io.Reader, stdout io.Writer, p *printer.Printer) error {
	// Step 1: Validate flags before touching the input.
	format, err := ParseOutputFormat(flags.format)
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidRequest, "invalid --format", err)
	}
	if flags.maxSize < 1 {
		return model.NewCLIError(model.ExitInvalidRequest, "--max-size must be at least 1")
	}
	if flags.repeat > flags.maxRepeat {
		return model.NewCLIError(model.ExitInvalidRequest,
			fmt.Sprintf("--repeat %d is above --max-repeat (%d)", flags.repeat, flags.maxRepeat))
	}
	if format == FormatPNG {
		if err := raster.CheckDPI(flags.dpi); err != nil {
			return model.WrapEngineError("invalid --dpi", err)
		}
	}

	e, err := loadEngine()
	if err != nil {
		return err
	}

	// Step 2: Read the payload. Blank templates need no input at all.
	var payload []byte
	if !flags.blank || input != "" {
		payload, err = readPayload(input, stdin, flags.maxSize)
		if err != nil {
			return err
		}
		VerboseLog("Read %d bytes", len(payload))
		if flags.blank && !IsJSONOutput() {
			p.Warning("--blank draws an empty template; the contents of %s are not punched", inputName(input))
		}
	}

	// Step 3: Encode and render.
	doc, err := e.Generate(model.EncodingRequest{
		Payload:        payload,
		MachineID:      flags.machine,
		VerticalRepeat: flags.repeat,
		Blank:          flags.blank,
		SolidFill:      flags.fill,
	})
	if err != nil {
		return model.WrapEngineError("failed to generate drawing", err)
	}

	// Step 4: Write the drawing.
	output := flags.output
	if output == "" {
		output = DefaultOutputName(now(), format)
	}
	if err := saveDocument(output, stdout, doc, format, flags.dpi); err != nil {
		return err
	}

	cards := 0
	if !flags.blank {
		est, err := e.Estimate(flags.machine, len(payload))
		if err != nil {
			return model.WrapEngineError("failed to count cards", err)
		}
		cards = est.Cards
	}

	return reportDrawing(output, p, drawingResult{
		Output:  output,
		Format:  format.String(),
		Machine: flags.machine,
		Cards:   cards,
		Punches: doc.Count(render.KindPunch),
		Bytes:   len(payload),
	})
}

// reportDrawing prints the outcome of a write. Nothing is printed to
// stdout when the drawing itself went there.
func reportDrawing(output string, p *printer.Printer, res drawingResult) error {
	if output == "-" {
		VerboseLog("Wrote %s drawing to stdout (%d punches)", res.Format, res.Punches)
		return nil
	}
	if IsJSONOutput() {
		return printJSON(p.Out, res)
	}
	p.Success("Wrote %s (%s, %s, %d punches)", res.Output, res.Machine, pluralCards(res.Cards), res.Punches)
	return nil
}

// inputName labels the input in messages.
func inputName(input string) string {
	if input == "" || input == "-" {
		return "stdin"
	}
	return input
}

func pluralCards(n int) string {
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}
