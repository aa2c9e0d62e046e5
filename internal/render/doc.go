// Package render implements the Drawing Renderer: it turns a machine
// profile and a hole matrix into a Document, an immutable list of shapes
// that serializes to SVG.
//
// Geometry is computed in inches and rounded once to integer mils
// (1/1000 inch), so a Document and its SVG bytes depend only on the
// render inputs. SVG output goes through github.com/ajstarks/svgo.
package render
