// Package form models the field placement rules of fixed-layout paper forms and loads them
// from coordinates and catalog files.
package form

import (
	"fmt"
	"strings"

	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// Point is a position in points. Catalog points use the authoring convention: origin at the
// top-left corner of the page, Y growing downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Kind selects how a field's value is drawn
type Kind int

const (
	KindUnknown Kind = iota
	// KindText draws the value once at the start point
	KindText
	// KindSpacedText draws one character per boxed cell, Spacing points apart
	KindSpacedText
	// KindMultiline wraps the value inside the box spanned by start and end
	KindMultiline
	// KindCheckbox draws the caller-supplied mark in bold
	KindCheckbox
)

// String returns the wire name of the Kind
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSpacedText:
		return "spaced"
	case KindMultiline:
		return "multiline"
	case KindCheckbox:
		return "checkbox"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire name to a Kind. An empty name is plain text.
func ParseKind(name string) Kind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return KindText
	case "spaced", "spaced_text", "spacedtext":
		return KindSpacedText
	case "multiline", "multi_line", "textarea":
		return KindMultiline
	case "checkbox", "check":
		return KindCheckbox
	default:
		return KindUnknown
	}
}

// FieldSpec is one field's placement, styling and kind
type FieldSpec struct {
	Name        string   `json:"field"`
	Kind        Kind     `json:"-"`
	Start       *Point   `json:"start,omitempty"`
	End         *Point   `json:"end,omitempty"`
	Spacing     float64  `json:"spacing,omitempty"`
	FontSize    *float64 `json:"font_size,omitempty"`
	Bold        *bool    `json:"bold,omitempty"`
	LineSpacing *float64 `json:"line_spacing,omitempty"`
	Value       string   `json:"value,omitempty"`

	// problem is set by the loader when the wire form could not be mapped cleanly
	problem string
}

// NewTextField creates a plain text field
func NewTextField(name string, start Point) (FieldSpec, error) {
	f := FieldSpec{Name: name, Kind: KindText, Start: &start}
	return f, f.checkShape()
}

// NewSpacedField creates a field drawn one character per cell
func NewSpacedField(name string, start Point, spacing float64) (FieldSpec, error) {
	f := FieldSpec{Name: name, Kind: KindSpacedText, Start: &start, Spacing: spacing}
	return f, f.checkShape()
}

// NewMultilineField creates a wrapped text field bounded by start and end
func NewMultilineField(name string, start, end Point) (FieldSpec, error) {
	f := FieldSpec{Name: name, Kind: KindMultiline, Start: &start, End: &end}
	return f, f.checkShape()
}

// NewCheckboxField creates a checkbox field
func NewCheckboxField(name string, start Point) (FieldSpec, error) {
	f := FieldSpec{Name: name, Kind: KindCheckbox, Start: &start}
	return f, f.checkShape()
}

// Validate reports whether the field can be rendered. Fields with an empty value are inert and
// always valid.
func (f FieldSpec) Validate() error {
	if f.Value == "" {
		return nil
	}
	if f.problem != "" {
		return ferrors.FieldSpec(f.Name, f.problem)
	}
	if f.Start == nil {
		return ferrors.FieldSpec(f.Name, "value present but start is missing")
	}
	return f.checkShape()
}

// checkShape validates the kind-specific attributes regardless of value
func (f FieldSpec) checkShape() error {
	if f.problem != "" {
		return ferrors.FieldSpec(f.Name, f.problem)
	}
	switch f.Kind {
	case KindText, KindCheckbox:
		return nil
	case KindSpacedText:
		if f.Spacing <= 0 {
			return ferrors.FieldSpec(f.Name, "spaced field requires spacing > 0")
		}
	case KindMultiline:
		if f.End == nil {
			return ferrors.FieldSpec(f.Name, "multiline field requires end")
		}
		if f.LineSpacing != nil && *f.LineSpacing <= 0 {
			return ferrors.FieldSpec(f.Name, "line_spacing must be positive")
		}
	default:
		return ferrors.FieldSpec(f.Name, fmt.Sprintf("unknown field kind %q", f.Kind))
	}
	return nil
}

// Clone returns a deep copy of the field
func (f FieldSpec) Clone() FieldSpec {
	c := f
	if f.Start != nil {
		p := *f.Start
		c.Start = &p
	}
	if f.End != nil {
		p := *f.End
		c.End = &p
	}
	if f.FontSize != nil {
		v := *f.FontSize
		c.FontSize = &v
	}
	if f.Bold != nil {
		v := *f.Bold
		c.Bold = &v
	}
	if f.LineSpacing != nil {
		v := *f.LineSpacing
		c.LineSpacing = &v
	}
	return c
}

// FormDefinition is the set of field placement rules for one form layout
type FormDefinition struct {
	FormName string      `json:"form_name"`
	Fields   []FieldSpec `json:"fields"`
}

// Clone returns a deep copy whose fields can be filled without touching the original
func (d *FormDefinition) Clone() *FormDefinition {
	if d == nil {
		return nil
	}
	c := &FormDefinition{FormName: d.FormName, Fields: make([]FieldSpec, len(d.Fields))}
	for i, f := range d.Fields {
		c.Fields[i] = f.Clone()
	}
	return c
}

// WithValues returns a deep copy with values injected by field name. Empty values never
// overwrite what the definition already carries.
func (d *FormDefinition) WithValues(values map[string]string) *FormDefinition {
	c := d.Clone()
	if c == nil {
		return nil
	}
	for i := range c.Fields {
		if v, ok := values[c.Fields[i].Name]; ok && v != "" {
			c.Fields[i].Value = v
		}
	}
	return c
}

// Field returns the field with the given name
func (d *FormDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns field names in definition order
func (d *FormDefinition) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Unfilled returns names of fields that have no value in the definition or in values
func (d *FormDefinition) Unfilled(values map[string]string) []string {
	missing := make([]string, 0)
	for _, f := range d.Fields {
		if f.Value == "" && values[f.Name] == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
