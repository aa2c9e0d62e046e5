package calibrate

import (
	"sort"

	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/render"
)

// Reference is the fixed geometry Calibrate draws on: an 80x12 IBM card.
// It is independent of the machine table so the output never changes.
var Reference = model.MachineProfile{
	ID:         "calibration",
	Name:       "IBM 80-column calibration card",
	Columns:    80,
	Rows:       12,
	HoleWidth:  0.055,
	HoleHeight: 0.125,
	HolePitchX: 0.087,
	HolePitchY: 0.25,
	CardWidth:  7.375,
	CardHeight: 3.25,
	CornerCut:  0.25,
	HoleShape:  model.HoleRect,
	Encoding:   model.EncodingBitstream,
}

// crosshairArm is the half-length of a registration crosshair, in mils.
const crosshairArm = 100

// Calibrate renders the reference pattern on the Reference card.
func Calibrate() *render.Document {
	doc, err := ForMachine(Reference)
	if err != nil {
		// Reference is a valid constant profile.
		panic("calibrate: reference profile rejected: " + err.Error())
	}
	return doc
}

// ForMachine renders the reference pattern on the given profile's card.
func ForMachine(p model.MachineProfile) (*render.Document, error) {
	doc, err := render.Render(p, Pattern(p), 1, true)
	if err != nil {
		return nil, err
	}

	marked := doc.WithMarks(crosshairs(render.NewLayout(p))...)
	marked.Title = "Calibration: " + p.String()
	return marked, nil
}

// Pattern returns the calibration holes for one card of the profile: the
// top and bottom rows, the first and last columns, and the diagonal
// row = column mod rows. Each position appears once, in card order.
func Pattern(p model.MachineProfile) model.HoleMatrix {
	m := model.HoleMatrix{Columns: p.Columns, Rows: p.Rows, Repeat: 1, Holes: []model.Hole{}}
	if p.Columns < 1 || p.Rows < 1 {
		return m
	}

	seen := make(map[model.Hole]bool)
	add := func(col, row int) {
		h := model.Hole{Card: 0, Column: col, Row: row}
		if !seen[h] {
			seen[h] = true
			m.Holes = append(m.Holes, h)
		}
	}

	for col := 0; col < p.Columns; col++ {
		add(col, 0)
		add(col, p.Rows-1)
		add(col, col%p.Rows)
	}
	for row := 0; row < p.Rows; row++ {
		add(0, row)
		add(p.Columns-1, row)
	}

	sort.Slice(m.Holes, func(i, j int) bool {
		a, b := m.Holes[i], m.Holes[j]
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Row < b.Row
	})
	m.Cards = 1
	return m
}

// crosshairs places a registration cross on each corner of the card.
func crosshairs(l render.Layout) []render.Element {
	o := l.CardOrigin(0)
	w, h := l.CardSize()
	corners := []render.Point{
		{X: o.X, Y: o.Y},
		{X: o.X + w, Y: o.Y},
		{X: o.X + w, Y: o.Y + h},
		{X: o.X, Y: o.Y + h},
	}

	marks := make([]render.Element, 0, 2*len(corners))
	for _, c := range corners {
		marks = append(marks,
			render.Element{Kind: render.KindMark, Shape: render.ShapeLine, X: c.X - crosshairArm, Y: c.Y, W: 2 * crosshairArm},
			render.Element{Kind: render.KindMark, Shape: render.ShapeLine, X: c.X, Y: c.Y - crosshairArm, H: 2 * crosshairArm},
		)
	}
	return marks
}
