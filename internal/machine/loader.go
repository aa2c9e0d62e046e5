package machine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/cardpunch/internal/model"
)

// Format identifies the syntax of a machine table file.
type Format string

const (
	// FormatYAML is a YAML table (.yaml, .yml).
	FormatYAML Format = "yaml"

	// FormatJSONC is a JSON table that may contain comments and trailing
	// commas (.json, .jsonc).
	FormatJSONC Format = "jsonc"
)

// table is the on-disk structure of a machine table file.
type table struct {
	// Version is the table schema version. Only 1 is defined.
	Version int `yaml:"version"`

	// Machines lists the profiles in file order.
	Machines []model.MachineProfile `yaml:"machines"`
}

// currentVersion is the only table schema version this package reads.
const currentVersion = 1

// DetectFormat picks the table format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSONC, nil
	default:
		return "", fmt.Errorf("unsupported machine table extension %q (valid: .yaml, .yml, .json, .jsonc)", filepath.Ext(path))
	}
}

// LoadFile reads a machine table from disk. The format follows the file
// extension. Profiles are returned unvalidated; NewRegistry validates them.
func LoadFile(path string) ([]model.MachineProfile, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, model.InvalidRequest("load", "machines", err.Error())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine table %s: %w", path, err)
	}

	profiles, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load machine table %s: %w", path, err)
	}
	return profiles, nil
}

// Parse decodes a machine table.
//
// JSONC input has its comments and trailing commas stripped, then goes
// through the same YAML decoder (JSON is a subset of YAML), so both formats
// share one set of snake_case keys.
func Parse(data []byte, format Format) ([]model.MachineProfile, error) {
	switch format {
	case FormatYAML:
	case FormatJSONC:
		data = jsonc.ToJSON(data)
	default:
		return nil, model.InvalidRequest("load", "machines", fmt.Sprintf("unknown table format %q", format))
	}

	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, model.InvalidRequest("load", "machines", err.Error())
	}
	if t.Version != currentVersion {
		return nil, model.InvalidRequest("load", "version", fmt.Sprintf("unsupported table version %d (want %d)", t.Version, currentVersion))
	}
	return t.Machines, nil
}
