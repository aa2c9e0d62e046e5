package machine

import (
	"fmt"
	"math"
	"regexp"

	"github.com/mmr-tortoise/cardpunch/internal/model"
)

// ValidationError represents a specific validation failure in a profile.
type ValidationError struct {
	// ID is the profile id, possibly empty when the id itself is missing.
	ID string

	// Field is the table key that failed validation (e.g. "hole_pitch_x").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.ID, e.Field, e.Message)
}

// idRegex validates profile ids: lowercase alphanumerics, hyphens, dots,
// and underscores, starting with an alphanumeric.
var idRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// epsilon absorbs float rounding in the fit checks (e.g. 79*0.087).
const epsilon = 1e-9

// ValidateProfile checks a single profile and returns every problem found
// (empty slice = valid).
//
// Checks performed:
//   - id is present and well-formed
//   - grid and physical dimensions are positive
//   - adjacent holes do not overlap
//   - the hole grid fits on the card
//   - hole shape and encoding are known, and the grid has the rows the
//     encoding needs
func ValidateProfile(p model.MachineProfile) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{ID: p.ID, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if p.ID == "" {
		add("id", "must not be empty")
	} else if !idRegex.MatchString(p.ID) {
		add("id", "must contain only lowercase letters, digits, '.', '_' and '-'")
	}

	if p.Columns < 1 {
		add("columns", "must be at least 1, got %d", p.Columns)
	}
	if p.Rows < 1 {
		add("rows", "must be at least 1, got %d", p.Rows)
	}

	positive := []struct {
		field string
		value float64
	}{
		{"hole_width", p.HoleWidth},
		{"hole_height", p.HoleHeight},
		{"hole_pitch_x", p.HolePitchX},
		{"hole_pitch_y", p.HolePitchY},
		{"card_width", p.CardWidth},
		{"card_height", p.CardHeight},
	}
	geometryOK := true
	for _, f := range positive {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			add(f.field, "must be a positive number, got %v", f.value)
			geometryOK = false
		}
	}
	if p.CornerCut < 0 {
		add("corner_cut", "must not be negative, got %v", p.CornerCut)
	}

	if geometryOK && p.Columns > 0 && p.Rows > 0 {
		if p.Columns > 1 && p.HoleWidth > p.HolePitchX+epsilon {
			add("hole_width", "%.4g exceeds hole_pitch_x %.4g, adjacent holes would overlap", p.HoleWidth, p.HolePitchX)
		}
		if p.Rows > 1 && p.HoleHeight > p.HolePitchY+epsilon {
			add("hole_height", "%.4g exceeds hole_pitch_y %.4g, adjacent holes would overlap", p.HoleHeight, p.HolePitchY)
		}

		gridW := float64(p.Columns-1)*p.HolePitchX + p.HoleWidth
		gridH := float64(p.Rows-1)*p.HolePitchY + p.HoleHeight
		if gridW > p.CardWidth+epsilon {
			add("columns", "hole grid is %.4g wide but card_width is %.4g", gridW, p.CardWidth)
		}
		if gridH > p.CardHeight+epsilon {
			add("rows", "hole grid is %.4g tall but card_height is %.4g", gridH, p.CardHeight)
		}
		if p.CornerCut*2 >= math.Min(p.CardWidth, p.CardHeight) {
			add("corner_cut", "%.4g is too large for a %.4gx%.4g card", p.CornerCut, p.CardWidth, p.CardHeight)
		}
	}

	if !p.HoleShape.IsValid() {
		add("hole_shape", "invalid hole shape %q (valid: rect, round)", p.HoleShape)
	}

	switch p.Encoding {
	case model.EncodingBitstream:
	case model.EncodingByteColumn:
		if p.Rows < 8 {
			add("encoding", "byte-column needs at least 8 rows, got %d", p.Rows)
		}
	case model.EncodingHollerith:
		if p.Rows != 12 {
			add("encoding", "hollerith needs exactly 12 rows, got %d", p.Rows)
		}
	default:
		add("encoding", "invalid encoding %q (valid: bitstream, byte-column, hollerith)", p.Encoding)
	}

	return errs
}
