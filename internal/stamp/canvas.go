package stamp

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
)

// fpdfFont maps a Font onto fpdf's core font family and style arguments
func fpdfFont(f Font) (family, style string) {
	switch NormalizeFamily(f.Family) {
	case FamilyCourier:
		family = "Courier"
	case FamilyTimes:
		family = "Times"
	default:
		family = "Helvetica"
	}
	if f.Bold {
		style = "B"
	}
	return family, style
}

// FontMetrics measures text with the core font metrics fpdf ships with. It is not safe for
// concurrent use; create one per fill.
type FontMetrics struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewFontMetrics creates a measurer backed by fpdf core font metrics
func NewFontMetrics() *FontMetrics {
	pdf := fpdf.New("P", "pt", "A4", "")
	return &FontMetrics{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// StringWidth implements Measurer
func (m *FontMetrics) StringWidth(text string, font Font) float64 {
	family, style := fpdfFont(font)
	m.pdf.SetFont(family, style, font.Size)
	return m.pdf.GetStringWidth(m.tr(text))
}

// Canvas draws on blank pages using render-space coordinates (origin bottom-left, Y up).
// fpdf's own axis runs top-down, so the conversion back happens here and nowhere else.
type Canvas struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	height float64
	pages  int
}

// NewCanvas creates an empty canvas
func NewCanvas() *Canvas {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(true)
	return &Canvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// AddPage starts a blank page of exactly width x height points
func (c *Canvas) AddPage(width, height float64) {
	c.pdf.AddPageFormat("P", fpdf.SizeType{Wd: width, Ht: height})
	c.height = height
	c.pages++
}

// Pages returns the number of pages added so far
func (c *Canvas) Pages() int {
	return c.pages
}

// Text draws op on the current page
func (c *Canvas) Text(op DrawOp) {
	family, style := fpdfFont(op.Font)
	r, g, b := op.Color.Bytes()
	c.pdf.SetFont(family, style, op.Font.Size)
	c.pdf.SetTextColor(r, g, b)
	c.pdf.Text(op.X, c.height-op.Y, c.tr(op.Text))
}

// Line draws a straight line between two render-space points
func (c *Canvas) Line(x1, y1, x2, y2, width float64, color RGB) {
	r, g, b := color.Bytes()
	c.pdf.SetDrawColor(r, g, b)
	c.pdf.SetLineWidth(width)
	c.pdf.Line(x1, c.height-y1, x2, c.height-y2)
}

// Box draws a filled and stroked rectangle whose lower-left corner is (x, y) in render space
func (c *Canvas) Box(x, y, w, h, lineWidth float64, stroke, fill RGB) {
	sr, sg, sb := stroke.Bytes()
	fr, fg, fb := fill.Bytes()
	c.pdf.SetDrawColor(sr, sg, sb)
	c.pdf.SetFillColor(fr, fg, fb)
	c.pdf.SetLineWidth(lineWidth)
	c.pdf.Rect(x, c.height-y-h, w, h, "FD")
}

// Output writes the canvas as a PDF document
func (c *Canvas) Output(w io.Writer) error {
	if c.pages == 0 {
		return fmt.Errorf("canvas has no pages")
	}
	if c.pdf.Err() {
		return fmt.Errorf("render overlay: %w", c.pdf.Error())
	}
	return c.pdf.Output(w)
}

// Bytes returns the canvas as a PDF document
func (c *Canvas) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderOverlay draws ops onto a single blank page sized exactly like the target page
func RenderOverlay(width, height float64, ops []DrawOp) ([]byte, error) {
	c := NewCanvas()
	c.AddPage(width, height)
	for _, op := range ops {
		c.Text(op)
	}
	return c.Bytes()
}
