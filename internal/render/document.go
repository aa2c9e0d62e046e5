package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"
)

// ElementKind is the role a shape plays in the drawing.
type ElementKind string

const (
	// KindOutline is a card's outer edge.
	KindOutline ElementKind = "outline"

	// KindGuide is an unpunched hole position.
	KindGuide ElementKind = "guide"

	// KindPunch is a punched hole.
	KindPunch ElementKind = "punch"

	// KindMark is a registration mark (calibration crosshair).
	KindMark ElementKind = "mark"
)

// Shape is the SVG primitive an element is drawn with.
type Shape string

const (
	ShapeRect    Shape = "rect"
	ShapeEllipse Shape = "ellipse"
	ShapePolygon Shape = "polygon"
	ShapeLine    Shape = "line"
)

// Point is a position in mils.
type Point struct {
	X, Y int
}

// Element is one drawn shape. Coordinates are in mils.
//
// Rect uses X, Y (top-left) and W, H. Ellipse uses X, Y as the center and
// W, H as the radii. Line runs from (X, Y) to (X+W, Y+H). Polygon uses
// Points.
type Element struct {
	Kind   ElementKind
	Shape  Shape
	Card   int
	X, Y   int
	W, H   int
	Points []Point
	Filled bool
}

// Document is a rendered drawing. It is never modified after the
// renderer returns it.
type Document struct {
	// Title is written as the SVG <title>.
	Title string

	// Width and Height are the drawing size in mils.
	Width, Height int

	elements []Element
}

// Elements returns a copy of the document's shapes in drawing order.
func (d *Document) Elements() []Element {
	out := make([]Element, len(d.elements))
	copy(out, d.elements)
	return out
}

// Count returns the number of elements of the given kind.
func (d *Document) Count(kind ElementKind) int {
	n := 0
	for _, e := range d.elements {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// FilledCount returns the number of solid-filled elements.
func (d *Document) FilledCount() int {
	n := 0
	for _, e := range d.elements {
		if e.Filled {
			n++
		}
	}
	return n
}

// WithMarks returns a copy of d with extra elements appended.
func (d *Document) WithMarks(marks ...Element) *Document {
	out := &Document{Title: d.Title, Width: d.Width, Height: d.Height}
	out.elements = make([]Element, 0, len(d.elements)+len(marks))
	out.elements = append(out.elements, d.elements...)
	out.elements = append(out.elements, marks...)
	return out
}

// Styles per element kind. Strokes are in mils.
const (
	styleOutline     = "fill:none;stroke:#000000;stroke-width:10"
	styleGuide       = "fill:none;stroke:#b0b0b0;stroke-width:3"
	stylePunchOpen   = "fill:none;stroke:#000000;stroke-width:8"
	stylePunchFilled = "fill:#000000;stroke:none"
	styleMark        = "fill:none;stroke:#000000;stroke-width:5"
)

// groupOrder fixes the order groups appear in the SVG.
var groupOrder = []ElementKind{KindOutline, KindGuide, KindPunch, KindMark}

// WriteSVG writes the document with a physical size in inches and a
// viewBox in mils, so it prints at true scale.
func (d *Document) WriteSVG(w io.Writer) error {
	return d.write(w, inches(d.Width), inches(d.Height))
}

// WriteSVGPixels writes the document sized in pixels at the given DPI.
// Rasterizers that do not understand physical units use this form.
func (d *Document) WriteSVGPixels(w io.Writer, dpi float64) error {
	if dpi <= 0 {
		return fmt.Errorf("dpi must be positive, got %v", dpi)
	}
	wpx, hpx := d.PixelSize(dpi)
	return d.write(w, strconv.Itoa(wpx), strconv.Itoa(hpx))
}

// PixelSize returns the raster size of the document at the given DPI.
func (d *Document) PixelSize(dpi float64) (int, int) {
	return pixels(d.Width, dpi), pixels(d.Height, dpi)
}

// Bytes returns the SVG serialization of the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = d.WriteSVG(&buf)
	return buf.Bytes()
}

func (d *Document) write(w io.Writer, width, height string) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	canvas.Startraw(
		fmt.Sprintf(`width="%s"`, width),
		fmt.Sprintf(`height="%s"`, height),
		fmt.Sprintf(`viewBox="0 0 %d %d"`, d.Width, d.Height),
	)
	if d.Title != "" {
		canvas.Title(d.Title)
	}

	for _, kind := range groupOrder {
		canvas.Gid(string(kind))
		for _, e := range d.elements {
			if e.Kind == kind {
				drawElement(canvas, e)
			}
		}
		canvas.Gend()
	}

	canvas.End()
	return ew.err
}

func drawElement(canvas *svg.SVG, e Element) {
	style := styleFor(e)
	switch e.Shape {
	case ShapeRect:
		canvas.Rect(e.X, e.Y, e.W, e.H, style)
	case ShapeEllipse:
		canvas.Ellipse(e.X, e.Y, e.W, e.H, style)
	case ShapeLine:
		canvas.Line(e.X, e.Y, e.X+e.W, e.Y+e.H, style)
	case ShapePolygon:
		xs := make([]int, len(e.Points))
		ys := make([]int, len(e.Points))
		for i, p := range e.Points {
			xs[i], ys[i] = p.X, p.Y
		}
		canvas.Polygon(xs, ys, style)
	}
}

func styleFor(e Element) string {
	switch e.Kind {
	case KindOutline:
		return styleOutline
	case KindGuide:
		return styleGuide
	case KindPunch:
		if e.Filled {
			return stylePunchFilled
		}
		return stylePunchOpen
	default:
		return styleMark
	}
}

// inches formats a mil length as an SVG length in inches, e.g. "7.375in".
func inches(mils int) string {
	return strconv.FormatFloat(float64(mils)/1000, 'f', -1, 64) + "in"
}

func pixels(mils int, dpi float64) int {
	px := int(float64(mils)*dpi/1000 + 0.5)
	if px < 1 {
		px = 1
	}
	return px
}

// errWriter remembers the first write error; svgo itself ignores them.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return len(p), nil
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}
