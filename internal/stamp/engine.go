package stamp

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/a3tai/mcp-form-filler/internal/form"
	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// FillReport summarizes a successful fill
type FillReport struct {
	FormName       string               `json:"form_name"`
	PageCount      int                  `json:"page_count"`
	PageWidth      float64              `json:"page_width"`
	PageHeight     float64              `json:"page_height"`
	FieldsRendered int                  `json:"fields_rendered"`
	DrawOps        []DrawOp             `json:"draw_ops"`
	Style          EffectiveStyle       `json:"style"`
	Diagnostics    []ferrors.Diagnostic `json:"diagnostics"`
}

// Engine fills form definitions into source documents. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	logger      *log.Logger
	newMeasurer func() Measurer
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithLogger routes per-field diagnostics to l
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMeasurer replaces the core font metrics used for word wrapping
func WithMeasurer(factory func() Measurer) EngineOption {
	return func(e *Engine) {
		e.newMeasurer = factory
	}
}

// NewEngine creates an engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:      log.New(io.Discard, "", 0),
		newMeasurer: func() Measurer { return NewFontMetrics() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fill renders values into def and composites the result onto the first page of src. The
// complete output is written to w only after the merge has succeeded. def is never modified.
func (e *Engine) Fill(
	src io.ReadSeeker, w io.Writer, def *form.FormDefinition, values map[string]string, style StyleOverrides,
) (*FillReport, error) {
	if def == nil {
		return nil, ferrors.NotFound("fill", "no form definition given")
	}

	global, err := GlobalStyle(style)
	if err != nil {
		return nil, err
	}

	filled := def.WithValues(values)

	info, err := ReadDocumentInfo(src)
	if err != nil {
		return nil, ferrors.Document("fill", "cannot read source document", err)
	}
	first := info.Pages[0]

	req := RenderRequest{
		Fields:      filled.Fields,
		PageWidth:   first.Width,
		PageHeight:  first.Height,
		GlobalStyle: global,
	}

	var diags ferrors.Diagnostics
	ops := NewRenderer(e.newMeasurer()).RenderAll(req, &diags)
	for _, d := range diags.All() {
		e.logger.Printf("%s: %s", def.FormName, d)
	}

	overlay, err := RenderOverlay(req.PageWidth, req.PageHeight, ops)
	if err != nil {
		return nil, ferrors.Document("fill", "cannot render overlay", err)
	}

	var out bytes.Buffer
	if err := Stamp(src, &out, overlay, 1, []int{1}); err != nil {
		return nil, ferrors.Document("fill", "cannot merge overlay", err)
	}

	merged, err := ReadDocumentInfo(bytes.NewReader(out.Bytes()))
	if err != nil {
		return nil, ferrors.Document("fill", "merged document is unreadable", err)
	}
	if merged.PageCount != info.PageCount {
		fe := ferrors.Document("fill", fmt.Sprintf("page count changed from %d to %d",
			info.PageCount, merged.PageCount), nil)
		fe.Reason = ferrors.ReasonPageCount
		return nil, fe
	}

	if _, err := w.Write(out.Bytes()); err != nil {
		return nil, ferrors.IO("fill", "cannot write output", err)
	}

	report := &FillReport{
		FormName:       def.FormName,
		PageCount:      info.PageCount,
		PageWidth:      first.Width,
		PageHeight:     first.Height,
		FieldsRendered: countFields(ops),
		DrawOps:        ops,
		Style:          global,
		Diagnostics:    diags.All(),
	}
	e.logger.Printf("%s: %d field(s) rendered, %s", def.FormName, report.FieldsRendered, diags.Summary())
	return report, nil
}

func countFields(ops []DrawOp) int {
	seen := make(map[string]bool)
	for _, op := range ops {
		seen[op.Field] = true
	}
	return len(seen)
}
