// Package cli — serve.go implements the "cardpunch serve" command, which
// runs the web upload form until interrupted.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/cardpunch/internal/logger"
	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/printer"
	"github.com/mmr-tortoise/cardpunch/internal/raster"
	"github.com/mmr-tortoise/cardpunch/internal/server"
)

// serveFlags holds the flag values for the serve command.
type serveFlags struct {
	addr      string
	maxUpload int64
	maxRepeat int
	dpi       float64

	// debug enables debug-level JSON logs with source locations.
	debug bool
}

// NewServeCommand creates the "serve" cobra command.
func NewServeCommand() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload form over HTTP",
		Long: `Serve the punch card generator over HTTP. Logs are JSON lines on stderr.

Examples:
  cardpunch serve
  cardpunch serve --addr 127.0.0.1:9000 --max-repeat 10 --debug`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runServe(cmd.Context(), flags, p)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", server.DefaultAddr, "Listen address")
	cmd.Flags().Int64Var(&flags.maxUpload, "max-upload", server.DefaultMaxUpload, "Largest accepted upload in bytes")
	cmd.Flags().IntVar(&flags.maxRepeat, "max-repeat", server.DefaultMaxRepeat, "Largest accepted vertical repeat")
	cmd.Flags().Float64Var(&flags.dpi, "dpi", raster.DefaultDPI, "PNG resolution in dots per inch")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	return cmd
}

// runServe is the main logic function for the serve command.
func runServe(ctx context.Context, flags *serveFlags, p *printer.Printer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if flags.maxUpload < 1 || flags.maxRepeat < 1 || flags.dpi <= 0 {
		return model.NewCLIError(model.ExitInvalidRequest, "--max-upload, --max-repeat and --dpi must be positive")
	}
	if err := raster.CheckDPI(flags.dpi); err != nil {
		return model.WrapEngineError("invalid --dpi", err)
	}

	e, err := loadEngine()
	if err != nil {
		return err
	}

	restore := logger.Setup(logger.Config{Output: os.Stderr, Debug: flags.debug || verbose})
	defer restore()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(e, server.Config{
		Addr:      flags.addr,
		MaxUpload: flags.maxUpload,
		MaxRepeat: flags.maxRepeat,
		DPI:       flags.dpi,
		Logger:    logger.L(),
	})
	if !IsJSONOutput() {
		p.Step("Serving %d machine profiles on %s", e.Registry().Len(), srv.Addr())
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return model.WrapCLIError(model.ExitIOError, "server failed", err)
	}
	return nil
}
