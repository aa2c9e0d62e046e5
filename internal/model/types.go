// Package model defines the domain types for the cardpunch engine.
//
// All physical measurements are expressed in inches, the unit historical
// card formats were specified in. Renderers convert to integer mils
// (1/1000 inch) at the last moment.
package model

import (
	"fmt"
	"strings"
)

// Encoding selects how a MachineProfile maps payload bytes to hole
// positions. The set is closed: every supported policy is listed here and
// dispatched with a switch in the encoder package.
type Encoding string

const (
	// EncodingBitstream treats the payload as a dense MSB-first bit stream.
	// Each bit consumes one grid position, filling columns top-down.
	EncodingBitstream Encoding = "bitstream"

	// EncodingByteColumn stores one byte per column, MSB in row 0 through
	// LSB in row 7. Requires at least 8 rows.
	EncodingByteColumn Encoding = "byte-column"

	// EncodingHollerith stores one character per column using the IBM 029
	// keypunch code. Requires exactly 12 rows.
	EncodingHollerith Encoding = "hollerith"
)

// String returns the string representation of Encoding.
func (e Encoding) String() string {
	return string(e)
}

// IsValid checks whether the Encoding value is one of the predefined
// policies.
func (e Encoding) IsValid() bool {
	switch e {
	case EncodingBitstream, EncodingByteColumn, EncodingHollerith:
		return true
	default:
		return false
	}
}

// ParseEncoding converts a string to an Encoding.
// Returns an error if the string does not match any valid policy.
func ParseEncoding(s string) (Encoding, error) {
	enc := Encoding(strings.ToLower(s))
	if !enc.IsValid() {
		return "", fmt.Errorf("invalid encoding: %q (valid: bitstream, byte-column, hollerith)", s)
	}
	return enc, nil
}

// HoleShape is the physical shape a punch leaves in the card.
type HoleShape string

const (
	// HoleRect is the rectangular hole of IBM-style cards.
	HoleRect HoleShape = "rect"

	// HoleRound is a round (or elliptical) hole.
	HoleRound HoleShape = "round"
)

// String returns the string representation of HoleShape.
func (s HoleShape) String() string {
	return string(s)
}

// IsValid checks whether the HoleShape value is a known shape.
func (s HoleShape) IsValid() bool {
	return s == HoleRect || s == HoleRound
}

// ParseHoleShape converts a string to a HoleShape.
func ParseHoleShape(s string) (HoleShape, error) {
	shape := HoleShape(strings.ToLower(s))
	if !shape.IsValid() {
		return "", fmt.Errorf("invalid hole shape: %q (valid: rect, round)", s)
	}
	return shape, nil
}

// MachineProfile describes one punch-card format: its hole grid, physical
// spacing and the policy used to encode bytes onto it.
//
// Profiles are immutable records. The registry hands out copies, so a
// caller mutating its copy cannot affect other requests.
type MachineProfile struct {
	// ID is the registry key (e.g. "ibm-80").
	ID string `json:"id" yaml:"id"`

	// Name is a human-readable description shown in listings.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Columns is the number of punch columns per card.
	Columns int `json:"columns" yaml:"columns"`

	// Rows is the number of punch rows per column (12 for IBM-style cards).
	Rows int `json:"rows" yaml:"rows"`

	// HoleWidth and HoleHeight are the size of a single punch.
	HoleWidth  float64 `json:"holeWidth" yaml:"hole_width"`
	HoleHeight float64 `json:"holeHeight" yaml:"hole_height"`

	// HolePitchX and HolePitchY are the center-to-center distances between
	// adjacent columns and rows.
	HolePitchX float64 `json:"holePitchX" yaml:"hole_pitch_x"`
	HolePitchY float64 `json:"holePitchY" yaml:"hole_pitch_y"`

	// CardWidth and CardHeight are the outer card dimensions.
	CardWidth  float64 `json:"cardWidth" yaml:"card_width"`
	CardHeight float64 `json:"cardHeight" yaml:"card_height"`

	// CornerCut is the leg length of the cut top-left corner. Zero means a
	// plain rectangle.
	CornerCut float64 `json:"cornerCut,omitempty" yaml:"corner_cut,omitempty"`

	// HoleShape is the drawn shape of guides and punches.
	HoleShape HoleShape `json:"holeShape" yaml:"hole_shape"`

	// Encoding is the byte-to-hole policy for this machine.
	Encoding Encoding `json:"encoding" yaml:"encoding"`
}

// Capacity returns the number of addressable hole positions on one card.
func (p MachineProfile) Capacity() int {
	return p.Columns * p.Rows
}

// String returns a short summary such as "ibm-80 (80x12, hollerith)".
func (p MachineProfile) String() string {
	return fmt.Sprintf("%s (%dx%d, %s)", p.ID, p.Columns, p.Rows, p.Encoding)
}

// Hole is one punched position. Card is the zero-based index of the card
// in a vertically stacked run.
type Hole struct {
	Card   int `json:"card"`
	Column int `json:"column"`
	Row    int `json:"row"`
}

// HoleMatrix is the encoder's output: the punched positions for a run of
// stacked cards. Holes are ordered by card, then column, then row.
type HoleMatrix struct {
	// Columns and Rows echo the profile the matrix was built for.
	Columns int `json:"columns"`
	Rows    int `json:"rows"`

	// Repeat is the number of card slots available (vertical_repeat).
	Repeat int `json:"repeat"`

	// Cards is the number of cards the payload actually occupies.
	// Always zero for blank matrices.
	Cards int `json:"cards"`

	// Holes lists every punched position.
	Holes []Hole `json:"holes"`
}

// EncodingRequest is the caller's input to the generate pipeline.
type EncodingRequest struct {
	// Payload is the raw content to punch. Its size is bounded upstream.
	Payload []byte

	// MachineID must resolve to a registered MachineProfile.
	MachineID string

	// VerticalRepeat is the number of stacked card slots, at least 1.
	VerticalRepeat int

	// Blank suppresses the payload and produces an unpunched template.
	Blank bool

	// SolidFill renders punches as filled shapes instead of outlines.
	SolidFill bool
}
