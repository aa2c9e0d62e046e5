// Package calibrate produces the alignment pattern used to check a card
// punch or printer: the outer rows and columns fully punched, a diagonal
// through the grid, and crosshairs at every card corner. The pattern goes
// through the same renderer as encoded payloads.
package calibrate
