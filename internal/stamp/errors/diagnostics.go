package errors

import (
	"errors"
	"fmt"
)

// Severity indicates whether a diagnostic changed what was rendered
type Severity int

const (
	SeverityInfo Severity = iota
	// SeverityWarning means the field rendered, but not completely
	SeverityWarning
	// SeverityError means the field was skipped
	SeverityError
)

// String returns a string representation of the Severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic records something noteworthy about one field during a fill
type Diagnostic struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: field %q: %s", d.Severity, d.Field, d.Message)
}

// Diagnostics collects per-field diagnostics for a single fill request
type Diagnostics struct {
	items []Diagnostic
}

// Add records a diagnostic
func (d *Diagnostics) Add(diag Diagnostic) {
	d.items = append(d.items, diag)
}

// Warn records a warning for a field that still rendered
func (d *Diagnostics) Warn(field, format string, args ...any) {
	d.Add(Diagnostic{Field: field, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// AddError records a skipped field. FieldSpec errors keep their message, anything else is
// recorded verbatim.
func (d *Diagnostics) AddError(field string, err error) {
	msg := err.Error()
	var fe *FillError
	if errors.As(err, &fe) && fe.Kind == KindFieldSpec {
		msg = fe.Message
		if fe.Field != "" {
			field = fe.Field
		}
	}
	d.Add(Diagnostic{Field: field, Severity: SeverityError, Message: msg})
}

// All returns every diagnostic in the order it was recorded
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	return out
}

// Errors returns the diagnostics for skipped fields
func (d *Diagnostics) Errors() []Diagnostic {
	return d.filter(func(s Severity) bool { return s == SeverityError })
}

// Warnings returns the diagnostics for fields that rendered partially
func (d *Diagnostics) Warnings() []Diagnostic {
	return d.filter(func(s Severity) bool { return s == SeverityWarning })
}

func (d *Diagnostics) filter(keep func(Severity) bool) []Diagnostic {
	out := make([]Diagnostic, 0)
	for _, item := range d.items {
		if keep(item.Severity) {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of recorded diagnostics
func (d *Diagnostics) Len() int {
	return len(d.items)
}

// Summary returns a one-line description of the collection
func (d *Diagnostics) Summary() string {
	errs, warns := len(d.Errors()), len(d.Warnings())
	if errs == 0 && warns == 0 {
		return "No field diagnostics"
	}
	return fmt.Sprintf("%d field(s) skipped, %d warning(s)", errs, warns)
}
