package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a fill failure by how the caller should react to it
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig covers missing forms or catalog entries and malformed style settings
	KindConfig
	// KindFieldSpec marks a single field whose attributes are inconsistent
	KindFieldSpec
	// KindDocument marks an unreadable or corrupt source document
	KindDocument
	// KindIO marks an output that could not be written
	KindIO
)

// Reason narrows a Kind for callers that need to branch on it
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotFound
	ReasonParse
	ReasonInvalidStyle
	ReasonAmbiguous
	ReasonPageCount
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "CONFIG_ERROR"
	case KindFieldSpec:
		return "FIELD_SPEC_ERROR"
	case KindDocument:
		return "DOCUMENT_ERROR"
	case KindIO:
		return "IO_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fatal reports whether an error of this kind aborts the whole fill
func (k Kind) Fatal() bool {
	return k != KindFieldSpec
}

// String returns a string representation of the Reason
func (r Reason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonParse:
		return "parse"
	case ReasonInvalidStyle:
		return "invalid_style"
	case ReasonAmbiguous:
		return "ambiguous"
	case ReasonPageCount:
		return "page_count"
	default:
		return ""
	}
}

// FillError is the structured error value returned by the form filling engine
type FillError struct {
	Kind    Kind   `json:"kind"`
	Reason  Reason `json:"reason,omitempty"`
	Op      string `json:"op,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *FillError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("[%s] field %q: %s", e.Kind, e.Field, e.Message)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FillError) Unwrap() error {
	return e.Err
}

// Config creates a configuration error
func Config(reason Reason, op, message string) *FillError {
	return &FillError{Kind: KindConfig, Reason: reason, Op: op, Message: message}
}

// NotFound creates a configuration error for a missing form or catalog entry
func NotFound(op, format string, args ...any) *FillError {
	return Config(ReasonNotFound, op, fmt.Sprintf(format, args...))
}

// FieldSpec creates an error for an internally inconsistent field
func FieldSpec(field, message string) *FillError {
	return &FillError{Kind: KindFieldSpec, Field: field, Message: message}
}

// Document wraps a failure to read or process the source document
func Document(op, message string, err error) *FillError {
	return &FillError{Kind: KindDocument, Op: op, Message: message, Err: err}
}

// IO wraps a failure to write the output document
func IO(op, message string, err error) *FillError {
	return &FillError{Kind: KindIO, Op: op, Message: message, Err: err}
}

// Wrap attaches an underlying cause to a FillError and returns it
func (e *FillError) Wrap(err error) *FillError {
	e.Err = err
	return e
}

// KindOf returns the Kind of the first FillError in err's chain
func KindOf(err error) Kind {
	var fe *FillError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries a FillError of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsNotFound reports whether err is a configuration error for a missing form or entry
func IsNotFound(err error) bool {
	var fe *FillError
	if errors.As(err, &fe) {
		return fe.Kind == KindConfig && fe.Reason == ReasonNotFound
	}
	return false
}
