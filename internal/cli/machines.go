// Package cli — machines.go implements the "cardpunch machines" command.
//
// The machines command lists the effective machine table: the built-in
// profiles merged with --machines. Profiles are presented as a text table
// or JSON array, depending on the --json flag. With --export the table is
// written as YAML in the format --machines accepts, so it can be edited
// and fed back in.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/cardpunch/internal/encoder"
	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/printer"
)

// machinesFlags holds the flag values for the machines command.
type machinesFlags struct {
	// export writes the table as YAML instead of listing it.
	export bool
}

// NewMachinesCommand creates the "machines" cobra command.
func NewMachinesCommand() *cobra.Command {
	flags := &machinesFlags{}

	cmd := &cobra.Command{
		Use:   "machines",
		Short: "List the available machine profiles",
		Long: `List the available machine profiles with their grid, encoding and
per-card capacity.

Examples:
  cardpunch machines
  cardpunch machines --json
  cardpunch machines --export > machines.yaml
  cardpunch --machines extra.jsonc machines`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runMachines(flags, p)
		},
	}

	cmd.Flags().BoolVar(&flags.export, "export", false, "Write the effective machine table as YAML")

	return cmd
}

// runMachines is the main logic function for the machines command.
func runMachines(flags *machinesFlags, p *printer.Printer) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}
	reg := e.Registry()

	if flags.export {
		if err := reg.Export(p.Out); err != nil {
			return model.WrapCLIError(model.ExitIOError, "failed to export machine table", err)
		}
		return nil
	}

	profiles := reg.Profiles()
	VerboseLog("Found %d machine profiles", len(profiles))

	if IsJSONOutput() {
		return printMachinesJSON(p.Out, profiles)
	}
	printMachinesText(p, profiles)
	return nil
}

// machineJSON is the JSON output structure for a single profile.
type machineJSON struct {
	model.MachineProfile
	BytesPerCard int `json:"bytesPerCard"`
}

// printMachinesJSON outputs the profile list as structured JSON.
// The top-level key is "machines" containing an array of profile objects.
func printMachinesJSON(w io.Writer, profiles []model.MachineProfile) error {
	type resultJSON struct {
		Machines []machineJSON `json:"machines"`
	}

	result := resultJSON{
		// Use an empty slice instead of nil to ensure JSON output shows []
		// instead of null.
		Machines: make([]machineJSON, 0, len(profiles)),
	}
	for _, p := range profiles {
		perCard, err := encoder.BytesPerCard(p)
		if err != nil {
			return model.WrapEngineError(fmt.Sprintf("profile %s cannot be encoded onto", p.ID), err)
		}
		result.Machines = append(result.Machines, machineJSON{MachineProfile: p, BytesPerCard: perCard})
	}
	return printJSON(w, result)
}

// printMachinesText outputs the profile list as a human-readable text
// table with aligned columns.
//
// The table format is:
//
//	ID               GRID    ENCODING     BYTES/CARD  CARD (IN)      NAME
//	ibm-80           80x12   hollerith    80          7.375x3.25     IBM 80-column card, 029 keypunch code
func printMachinesText(p *printer.Printer, profiles []model.MachineProfile) {
	if len(profiles) == 0 {
		p.Printf("No machine profiles found.\n")
		return
	}

	p.Header("%-16s %-7s %-12s %-11s %-14s %s",
		"ID", "GRID", "ENCODING", "BYTES/CARD", "CARD (IN)", "NAME")

	for _, m := range profiles {
		perCard := "-"
		if n, err := encoder.BytesPerCard(m); err == nil {
			perCard = fmt.Sprintf("%d", n)
		}
		p.Printf("%-16s %-7s %-12s %-11s %-14s %s\n",
			m.ID,
			FormatGrid(m),
			m.Encoding.String(),
			perCard,
			FormatCardSize(m),
			m.Name,
		)
	}
}

// FormatGrid returns the hole grid as "COLUMNSxROWS", e.g. "80x12".
func FormatGrid(p model.MachineProfile) string {
	return fmt.Sprintf("%dx%d", p.Columns, p.Rows)
}

// FormatCardSize returns the card size in inches without trailing zeros,
// e.g. "7.375x3.25".
func FormatCardSize(p model.MachineProfile) string {
	return fmt.Sprintf("%gx%g", p.CardWidth, p.CardHeight)
}
