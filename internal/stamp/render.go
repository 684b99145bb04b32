package stamp

import (
	"math"
	"unicode/utf8"

	"github.com/a3tai/mcp-form-filler/internal/form"
	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// DrawOp draws Text with its baseline origin at (X, Y) in render space
type DrawOp struct {
	Field string  `json:"field"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Font  Font    `json:"font"`
	Color RGB     `json:"color"`
}

// RenderRequest is the immutable input of one overlay render
type RenderRequest struct {
	Fields      []form.FieldSpec
	PageWidth   float64
	PageHeight  float64
	GlobalStyle EffectiveStyle
}

// Rendered is the outcome of rendering one field
type Rendered struct {
	Ops []DrawOp
	// Dropped counts multiline lines that did not fit the box
	Dropped int
}

// Renderer turns field specs into draw operations
type Renderer struct {
	Measurer Measurer
}

// NewRenderer creates a renderer that measures text with m
func NewRenderer(m Measurer) *Renderer {
	return &Renderer{Measurer: m}
}

// Render produces the draw operations for one field. Inert fields produce nothing; fields with
// inconsistent attributes return a FieldSpec error.
func (r *Renderer) Render(f form.FieldSpec, style EffectiveStyle, pageHeight float64) (Rendered, error) {
	if f.Value == "" {
		return Rendered{}, nil
	}
	if err := f.Validate(); err != nil {
		return Rendered{}, err
	}

	origin := ToRenderSpace(*f.Start, pageHeight)
	op := func(text string, x, y float64, font Font) DrawOp {
		return DrawOp{Field: f.Name, Text: text, X: x, Y: y, Font: font, Color: style.Color}
	}

	switch f.Kind {
	case form.KindText:
		return Rendered{Ops: []DrawOp{op(f.Value, origin.X, origin.Y, style.Font())}}, nil

	case form.KindSpacedText:
		ops := make([]DrawOp, 0, utf8.RuneCountInString(f.Value))
		i := 0
		for _, ch := range f.Value {
			ops = append(ops, op(string(ch), origin.X+float64(i)*f.Spacing, origin.Y, style.Font()))
			i++
		}
		return Rendered{Ops: ops}, nil

	case form.KindMultiline:
		return r.renderMultiline(f, style, pageHeight, op)

	case form.KindCheckbox:
		font := style.Font()
		font.Bold = true
		return Rendered{Ops: []DrawOp{op(f.Value, origin.X, origin.Y, font)}}, nil

	default:
		return Rendered{}, ferrors.FieldSpec(f.Name, "unsupported field kind "+f.Kind.String())
	}
}

func (r *Renderer) renderMultiline(
	f form.FieldSpec, style EffectiveStyle, pageHeight float64,
	op func(string, float64, float64, Font) DrawOp,
) (Rendered, error) {
	if r.Measurer == nil {
		return Rendered{}, ferrors.FieldSpec(f.Name, "multiline field needs a text measurer")
	}

	start := ToRenderSpace(*f.Start, pageHeight)
	end := ToRenderSpace(*f.End, pageHeight)
	boxWidth := math.Abs(end.X - start.X)
	boxHeight := math.Abs(end.Y - start.Y)

	lineSpacing := LineSpacingFactor * style.FontSize
	if f.LineSpacing != nil {
		lineSpacing = *f.LineSpacing
	}

	font := style.Font()
	lines, dropped := Truncate(Wrap(f.Value, font, boxWidth, r.Measurer), MaxLines(boxHeight, lineSpacing))

	ops := make([]DrawOp, len(lines))
	for i, line := range lines {
		ops[i] = op(line, start.X, start.Y-float64(i)*lineSpacing, font)
	}
	return Rendered{Ops: ops, Dropped: dropped}, nil
}

// RenderAll renders every field of req. Fields that cannot be rendered are skipped and
// recorded in diags; lines dropped from overflowing multiline boxes are recorded as warnings.
func (r *Renderer) RenderAll(req RenderRequest, diags *ferrors.Diagnostics) []DrawOp {
	ops := make([]DrawOp, 0, len(req.Fields))
	for _, f := range req.Fields {
		out, err := r.Render(f, ResolveStyle(f, req.GlobalStyle), req.PageHeight)
		if err != nil {
			diags.AddError(f.Name, err)
			continue
		}
		if bad := Unencodable(f.Value); len(bad) > 0 && len(out.Ops) > 0 {
			diags.Warn(f.Name, "%d character(s) outside the core font encoding drawn as '.': %q",
				len(bad), string(bad))
		}
		if out.Dropped > 0 {
			diags.Warn(f.Name, "text overflows the box, dropped %d of %d line(s)",
				out.Dropped, out.Dropped+len(out.Ops))
		}
		ops = append(ops, out.Ops...)
	}
	return ops
}
