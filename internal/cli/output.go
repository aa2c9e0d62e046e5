// Package cli — output.go holds the helpers shared by the commands that
// write drawings: output format parsing, input reading, default file names
// and document serialization.
package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/raster"
	"github.com/mmr-tortoise/cardpunch/internal/render"
)

// now is the clock used for default output names. Tests replace it.
var now = time.Now

// OutputFormat is the file format a drawing is written in.
type OutputFormat string

const (
	// FormatSVG writes the vector drawing at true scale.
	FormatSVG OutputFormat = "svg"

	// FormatPNG rasterizes the drawing at the requested DPI.
	FormatPNG OutputFormat = "png"
)

// String returns the string representation of OutputFormat.
func (f OutputFormat) String() string {
	return string(f)
}

// IsValid reports whether f is a supported format.
func (f OutputFormat) IsValid() bool {
	return f == FormatSVG || f == FormatPNG
}

// ParseOutputFormat converts a flag value (case-insensitive) to an
// OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid output format %q: valid values are svg, png", s)
	}
	return f, nil
}

// DefaultOutputName returns the name a generated drawing is saved under
// when -o is not given, e.g. "punchcard-1700000000.svg".
func DefaultOutputName(t time.Time, format OutputFormat) string {
	return fmt.Sprintf("punchcard-%d.%s", t.Unix(), format)
}

// readPayload reads the input named by path ("" or "-" means stdin),
// refusing anything larger than maxSize bytes.
func readPayload(path string, stdin io.Reader, maxSize int64) ([]byte, error) {
	var r io.Reader = stdin
	name := "stdin"
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to open %s", path), err)
		}
		defer f.Close()
		r = f
		name = path
	}

	data, err := io.ReadAll(io.LimitReader(bufio.NewReader(r), maxSize+1))
	if err != nil {
		return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to read %s", name), err)
	}
	if int64(len(data)) > maxSize {
		return nil, model.NewCLIError(model.ExitPayloadTooLarge,
			fmt.Sprintf("%s is larger than --max-size (%d bytes)", name, maxSize))
	}
	return data, nil
}

// writeDocument serializes doc in the given format.
func writeDocument(w io.Writer, doc *render.Document, format OutputFormat, dpi float64) error {
	if format == FormatPNG {
		return raster.WritePNG(w, doc, dpi)
	}
	return doc.WriteSVG(w)
}

// saveDocument writes doc to path, or to stdout when path is "-". The
// drawing is serialized in memory first, so a rejected drawing leaves no
// file behind.
func saveDocument(path string, stdout io.Writer, doc *render.Document, format OutputFormat, dpi float64) error {
	target := path
	if path == "-" {
		target = "stdout"
	}

	var buf bytes.Buffer
	if err := writeDocument(&buf, doc, format, dpi); err != nil {
		return wrapWriteError(target, err)
	}

	if path == "-" {
		if _, err := buf.WriteTo(stdout); err != nil {
			return wrapWriteError(target, err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to create %s", path), err)
	}
	if _, err := buf.WriteTo(f); err != nil {
		_ = f.Close()
		return wrapWriteError(path, err)
	}
	if err := f.Close(); err != nil {
		return wrapWriteError(path, err)
	}
	return nil
}

// wrapWriteError keeps engine kinds (such as a DPI the rasterizer refuses)
// and treats everything else as an I/O failure.
func wrapWriteError(target string, err error) error {
	if model.KindOf(err) != "" {
		return model.WrapEngineError(fmt.Sprintf("failed to write %s", target), err)
	}
	return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to write %s", target), err)
}

// drawingResult is the JSON summary printed after a drawing is written.
type drawingResult struct {
	Output  string `json:"output"`
	Format  string `json:"format"`
	Machine string `json:"machine"`
	Cards   int    `json:"cards"`
	Punches int    `json:"punches"`
	Bytes   int    `json:"bytes,omitempty"`
}
