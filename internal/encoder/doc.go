// Package encoder implements the Card Encoder: it maps a byte sequence to
// the punched positions of a run of vertically stacked cards.
//
// Three policies are supported, selected by the profile's Encoding:
//
//   - bitstream: a dense MSB-first bit stream, one grid position per bit,
//     filling each column top-down
//   - byte-column: one byte per column, MSB in row 0 through LSB in row 7
//   - hollerith: one character per column in the IBM 029 keypunch code
//
// Every policy is a pure, total function of (byte value, position index,
// profile). A payload that needs more positions than vertical_repeat
// cards provide fails with a payload_too_large engine error.
package encoder
