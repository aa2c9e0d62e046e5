package render

import (
	"fmt"
	"math"

	"github.com/mmr-tortoise/cardpunch/internal/model"
)

// Margin is the blank space around the drawing and between stacked cards,
// in inches.
const Margin = 0.25

// MaxElements bounds the outlines and guides one drawing may hold.
const MaxElements = 1_000_000

// Layout places cards and holes for one profile. All results are in mils.
type Layout struct {
	profile model.MachineProfile

	// x0 and y0 are the center of column 0, row 0 relative to a card's
	// top-left corner, in inches.
	x0, y0 float64
}

// NewLayout centers the profile's hole grid on its card.
func NewLayout(p model.MachineProfile) Layout {
	gridW := float64(p.Columns-1)*p.HolePitchX + p.HoleWidth
	gridH := float64(p.Rows-1)*p.HolePitchY + p.HoleHeight
	return Layout{
		profile: p,
		x0:      (p.CardWidth-gridW)/2 + p.HoleWidth/2,
		y0:      (p.CardHeight-gridH)/2 + p.HoleHeight/2,
	}
}

// Size returns the drawing size for repeat stacked cards.
func (l Layout) Size(repeat int) (width, height int) {
	p := l.profile
	return mils(p.CardWidth + 2*Margin), mils(float64(repeat)*(p.CardHeight+Margin) + Margin)
}

// CardOrigin returns the top-left corner of the given card.
func (l Layout) CardOrigin(card int) Point {
	return Point{X: mils(Margin), Y: mils(Margin + float64(card)*(l.profile.CardHeight+Margin))}
}

// CardSize returns the card's width and height.
func (l Layout) CardSize() (width, height int) {
	return mils(l.profile.CardWidth), mils(l.profile.CardHeight)
}

// HoleCenter returns the center of a grid position.
func (l Layout) HoleCenter(card, column, row int) Point {
	p := l.profile
	return Point{
		X: mils(Margin + l.x0 + float64(column)*p.HolePitchX),
		Y: mils(Margin + float64(card)*(p.CardHeight+Margin) + l.y0 + float64(row)*p.HolePitchY),
	}
}

// outline returns the card edge with the profile's corner cut.
func (l Layout) outline(card int) Element {
	o := l.CardOrigin(card)
	w, h := l.CardSize()
	cut := mils(l.profile.CornerCut)

	var pts []Point
	if cut > 0 {
		pts = []Point{
			{o.X + cut, o.Y},
			{o.X + w, o.Y},
			{o.X + w, o.Y + h},
			{o.X, o.Y + h},
			{o.X, o.Y + cut},
		}
	} else {
		pts = []Point{
			{o.X, o.Y},
			{o.X + w, o.Y},
			{o.X + w, o.Y + h},
			{o.X, o.Y + h},
		}
	}
	return Element{Kind: KindOutline, Shape: ShapePolygon, Card: card, Points: pts}
}

// hole returns a guide or punch shape at a grid position.
func (l Layout) hole(kind ElementKind, card, column, row int, filled bool) Element {
	p := l.profile
	c := l.HoleCenter(card, column, row)
	w, h := mils(p.HoleWidth), mils(p.HoleHeight)

	e := Element{Kind: kind, Card: card, Filled: filled}
	if p.HoleShape == model.HoleRound {
		e.Shape = ShapeEllipse
		e.X, e.Y, e.W, e.H = c.X, c.Y, w/2, h/2
		return e
	}
	e.Shape = ShapeRect
	e.X, e.Y, e.W, e.H = c.X-w/2, c.Y-h/2, w, h
	return e
}

// Render draws repeat stacked cards for the profile with every grid
// position as a guide and every matrix hole as a punch. solidFill only
// changes how punches are styled.
//
// The matrix must have been built for the profile, and no hole may sit on
// a card at or beyond repeat.
func Render(profile model.MachineProfile, matrix model.HoleMatrix, repeat int, solidFill bool) (*Document, error) {
	if err := checkInputs(profile, matrix, repeat); err != nil {
		return nil, err
	}

	l := NewLayout(profile)
	w, h := l.Size(repeat)
	doc := &Document{
		Title:  "Punch card: " + profile.String(),
		Width:  w,
		Height: h,
	}

	positions := profile.Columns * profile.Rows
	doc.elements = make([]Element, 0, repeat*(1+positions)+len(matrix.Holes))

	for card := 0; card < repeat; card++ {
		doc.elements = append(doc.elements, l.outline(card))
	}
	for card := 0; card < repeat; card++ {
		for col := 0; col < profile.Columns; col++ {
			for row := 0; row < profile.Rows; row++ {
				doc.elements = append(doc.elements, l.hole(KindGuide, card, col, row, false))
			}
		}
	}
	for _, hole := range matrix.Holes {
		doc.elements = append(doc.elements, l.hole(KindPunch, hole.Card, hole.Column, hole.Row, solidFill))
	}

	return doc, nil
}

func checkInputs(p model.MachineProfile, m model.HoleMatrix, repeat int) error {
	const op = "render"

	if repeat < 1 {
		return model.InvalidRequest(op, "vertical_repeat", fmt.Sprintf("must be at least 1, got %d", repeat))
	}
	if p.Columns < 1 || p.Rows < 1 {
		return model.InvalidRequest(op, "profile", fmt.Sprintf("profile %q has an empty %dx%d grid", p.ID, p.Columns, p.Rows))
	}
	if p.CardWidth <= 0 || p.CardHeight <= 0 || p.HoleWidth <= 0 || p.HoleHeight <= 0 {
		return model.InvalidRequest(op, "profile", fmt.Sprintf("profile %q has non-positive dimensions", p.ID))
	}
	if p.Columns > MaxElements || p.Rows > MaxElements {
		return model.InvalidRequest(op, "profile", fmt.Sprintf("profile %q grid %dx%d is too large to draw", p.ID, p.Columns, p.Rows))
	}
	if perCard := 1 + p.Columns*p.Rows; repeat > MaxElements/perCard {
		return model.InvalidRequest(op, "vertical_repeat", fmt.Sprintf("%d cards of %d shapes exceed the %d shape limit", repeat, perCard, MaxElements))
	}
	if m.Columns != p.Columns || m.Rows != p.Rows {
		return model.InvalidRequest(op, "matrix", fmt.Sprintf("matrix is %dx%d, profile %q is %dx%d", m.Columns, m.Rows, p.ID, p.Columns, p.Rows))
	}
	for _, h := range m.Holes {
		if h.Column < 0 || h.Column >= p.Columns || h.Row < 0 || h.Row >= p.Rows {
			return model.InvalidRequest(op, "matrix", fmt.Sprintf("hole (column %d, row %d) is outside the %dx%d grid", h.Column, h.Row, p.Columns, p.Rows))
		}
		if h.Card < 0 || h.Card >= repeat {
			return model.InvalidRequest(op, "matrix", fmt.Sprintf("hole on card %d, only %d cards drawn", h.Card, repeat))
		}
	}
	return nil
}

// mils converts inches to rounded thousandths of an inch.
func mils(in float64) int {
	return int(math.Round(in * 1000))
}
