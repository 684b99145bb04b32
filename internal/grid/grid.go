// Package grid overlays a labelled coordinate ruler on every page of a document. The labels use
// the authoring convention of coordinates files (origin top-left, Y down), so positions read off
// the grid can be copied straight into a form definition.
package grid

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/a3tai/mcp-form-filler/internal/form"
	"github.com/a3tai/mcp-form-filler/internal/stamp"
	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// Default grid spacing in points
const (
	DefaultSpacing      = 50.0
	DefaultMajorSpacing = 100.0
)

// Smallest accepted spacing in points. Label count grows with the square of the inverse of
// the major spacing.
const (
	MinSpacing      = 5.0
	MinMajorSpacing = 10.0
)

var (
	minorColor  = stamp.RGB{R: 0.8, G: 0.8, B: 0.8}
	majorColor  = stamp.RGB{R: 0.5, G: 0.5, B: 0.5}
	labelColor  = stamp.RGB{R: 1}
	axisColor   = stamp.RGB{B: 0.8}
	axisBorder  = stamp.RGB{R: 0.8, G: 0.8, B: 1}
	white       = stamp.RGB{R: 1, G: 1, B: 1}
	black       = stamp.RGB{}
	originColor = stamp.RGB{G: 0.6}
	arrowColor  = stamp.RGB{G: 0.5}
)

// Options controls the grid layout
type Options struct {
	// Spacing between grid lines
	Spacing float64 `json:"spacing"`
	// MajorSpacing between darker, labelled grid lines. Must be a multiple of Spacing.
	MajorSpacing float64 `json:"major_spacing"`
}

// DefaultOptions returns a 50pt grid with labels every 100pt
func DefaultOptions() Options {
	return Options{Spacing: DefaultSpacing, MajorSpacing: DefaultMajorSpacing}
}

func (o Options) withDefaults() Options {
	if o.Spacing <= 0 {
		o.Spacing = DefaultSpacing
	}
	if o.MajorSpacing <= 0 {
		o.MajorSpacing = DefaultMajorSpacing
	}
	return o
}

// Validate checks that major lines fall on minor lines
func (o Options) Validate() error {
	o = o.withDefaults()
	if math.IsNaN(o.Spacing) || math.IsInf(o.Spacing, 0) || o.Spacing < MinSpacing {
		return ferrors.Config(ferrors.ReasonInvalidStyle, "grid",
			fmt.Sprintf("spacing %g is below the minimum of %g", o.Spacing, MinSpacing))
	}
	if math.IsNaN(o.MajorSpacing) || math.IsInf(o.MajorSpacing, 0) || o.MajorSpacing < MinMajorSpacing {
		return ferrors.Config(ferrors.ReasonInvalidStyle, "grid",
			fmt.Sprintf("major spacing %g is below the minimum of %g", o.MajorSpacing, MinMajorSpacing))
	}
	ratio := o.MajorSpacing / o.Spacing
	if ratio < 1 || math.Abs(ratio-math.Round(ratio)) > 1e-9 {
		return ferrors.Config(ferrors.ReasonInvalidStyle, "grid",
			fmt.Sprintf("major spacing %g must be a multiple of spacing %g", o.MajorSpacing, o.Spacing))
	}
	return nil
}

// Result describes a rendered grid document
type Result struct {
	PageCount int              `json:"page_count"`
	Pages     []stamp.PageSize `json:"pages"`
	Options   Options          `json:"options"`
}

// Render writes a copy of src with a grid stamped on every page
func Render(src io.ReadSeeker, w io.Writer, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	info, err := stamp.ReadDocumentInfo(src)
	if err != nil {
		return nil, ferrors.Document("grid", "cannot read source document", err)
	}

	overlay, err := Overlay(info.Pages, opts)
	if err != nil {
		return nil, ferrors.Document("grid", "cannot render grid", err)
	}

	current := src
	var out bytes.Buffer
	for page := 1; page <= info.PageCount; page++ {
		out.Reset()
		if err := stamp.Stamp(current, &out, overlay, page, []int{page}); err != nil {
			return nil, ferrors.Document("grid", fmt.Sprintf("cannot stamp page %d", page), err)
		}
		current = bytes.NewReader(bytes.Clone(out.Bytes()))
	}

	if _, err := w.Write(out.Bytes()); err != nil {
		return nil, ferrors.IO("grid", "cannot write output", err)
	}
	return &Result{PageCount: info.PageCount, Pages: info.Pages, Options: opts}, nil
}

// Overlay draws one grid page per entry in pages
func Overlay(pages []stamp.PageSize, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	c := stamp.NewCanvas()
	for i, p := range pages {
		c.AddPage(p.Width, p.Height)
		drawPage(c, i+1, p, opts)
	}
	return c.Bytes()
}

// page wraps a canvas so drawing code can use authoring coordinates
type page struct {
	c    *stamp.Canvas
	size stamp.PageSize
}

func (p page) at(x, y float64) form.Point {
	return stamp.ToRenderSpace(form.Point{X: x, Y: y}, p.size.Height)
}

func (p page) line(x1, y1, x2, y2, width float64, color stamp.RGB) {
	a, b := p.at(x1, y1), p.at(x2, y2)
	p.c.Line(a.X, a.Y, b.X, b.Y, width, color)
}

// box takes the top-left corner in authoring coordinates
func (p page) box(x, y, w, h float64) {
	bottomLeft := p.at(x, y+h)
	p.c.Box(bottomLeft.X, bottomLeft.Y, w, h, 0.3, axisBorder, white)
}

func (p page) text(x, y float64, s string, size float64, color stamp.RGB) {
	pt := p.at(x, y)
	p.c.Text(stamp.DrawOp{
		Text: s, X: pt.X, Y: pt.Y,
		Font:  stamp.Font{Family: stamp.FamilyHelvetica, Size: size},
		Color: color,
	})
}

func isMajor(v, major float64) bool {
	r := math.Mod(v, major)
	return r < 1e-6 || major-r < 1e-6
}

func drawPage(c *stamp.Canvas, number int, size stamp.PageSize, opts Options) {
	p := page{c: c, size: size}
	w, h := size.Width, size.Height

	for x := 0.0; x <= w; x += opts.Spacing {
		if isMajor(x, opts.MajorSpacing) {
			p.line(x, 0, x, h, 0.5, majorColor)
		} else {
			p.line(x, 0, x, h, 0.25, minorColor)
		}
	}
	for y := 0.0; y <= h; y += opts.Spacing {
		if isMajor(y, opts.MajorSpacing) {
			p.line(0, y, w, y, 0.5, majorColor)
		} else {
			p.line(0, y, w, y, 0.25, minorColor)
		}
	}

	const labelSize = 7
	for x := 0.0; x <= w; x += opts.MajorSpacing {
		for y := 0.0; y <= h; y += opts.MajorSpacing {
			p.text(x+2, y+labelSize+2, fmt.Sprintf("(%d,%d)", int(x), int(y)), labelSize, labelColor)
		}
	}

	for x := 0.0; x <= w; x += opts.MajorSpacing {
		p.box(x, 0, 25, 12)
		p.text(x+2, 10, fmt.Sprintf("%d", int(x)), 8, axisColor)
	}
	for y := 0.0; y <= h; y += opts.MajorSpacing {
		p.box(0, y, 30, 12)
		p.text(2, y+10, fmt.Sprintf("%d", int(y)), 8, axisColor)
	}

	p.text(w-180, 25, fmt.Sprintf("Page %d | %d x %d pts", number, int(w), int(h)), 9, black)
	p.text(35, 22, "Origin (0,0)", 8, originColor)
	p.text(w-40, 25, "X ->", 9, arrowColor)
	p.text(5, h-10, "Y v", 9, arrowColor)
}
