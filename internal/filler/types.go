package filler

import (
	"github.com/a3tai/mcp-form-filler/internal/grid"
	"github.com/a3tai/mcp-form-filler/internal/stamp"
	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// FillRequest represents a request to fill a form
type FillRequest struct {
	Values          map[string]string    `json:"values"`
	FormName        string               `json:"form_name"`
	Issuer          string               `json:"issuer,omitempty"`
	CoordinatesPath string               `json:"coordinates_path,omitempty"`
	SourcePath      string               `json:"source_path,omitempty"`
	OutputPath      string               `json:"output_path,omitempty"`
	Style           stamp.StyleOverrides `json:"style"`
}

// FillResult represents the result of a fill operation
type FillResult struct {
	OutputPath     string               `json:"output_path"`
	SourcePath     string               `json:"source_path"`
	FormName       string               `json:"form_name"`
	PageCount      int                  `json:"page_count"`
	FieldsRendered int                  `json:"fields_rendered"`
	Unfilled       []string             `json:"unfilled_fields,omitempty"`
	Diagnostics    []ferrors.Diagnostic `json:"diagnostics,omitempty"`
	Style          stamp.EffectiveStyle `json:"style"`
}

// ListFormsRequest represents a request to list catalog forms
type ListFormsRequest struct {
	Issuer string `json:"issuer,omitempty"`
}

// FormInfo describes one catalog entry
type FormInfo struct {
	Issuer          string   `json:"issuer"`
	FormName        string   `json:"form_name"`
	Description     string   `json:"description,omitempty"`
	Aliases         []string `json:"aliases,omitempty"`
	DocumentPath    string   `json:"document_path"`
	CoordinatesPath string   `json:"coordinates_path"`
	// FieldCount is the number of fields the coordinates file defines for the form
	FieldCount int `json:"field_count"`
	// Available is false when the document is missing or the coordinates file does not define
	// the form
	Available bool `json:"available"`
}

// ListFormsResult represents the catalog listing
type ListFormsResult struct {
	Forms      []FormInfo `json:"forms"`
	Issuers    []string   `json:"issuers"`
	TotalCount int        `json:"total_count"`
}

// FormFieldsRequest represents a request for the fields of a form
type FormFieldsRequest struct {
	FormName        string `json:"form_name"`
	Issuer          string `json:"issuer,omitempty"`
	CoordinatesPath string `json:"coordinates_path,omitempty"`
}

// FieldInfo describes a field a caller can supply a value for
type FieldInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	// Value is the pre-filled default from the coordinates file, if any
	Value string `json:"value,omitempty"`
	// MaxChars is the number of character cells of a spaced field, when bounded by a box
	MaxChars int `json:"max_chars,omitempty"`
}

// FormFieldsResult lists the fields of a form
type FormFieldsResult struct {
	FormName   string      `json:"form_name"`
	Issuer     string      `json:"issuer,omitempty"`
	Fields     []FieldInfo `json:"fields"`
	TotalCount int         `json:"total_count"`
}

// GridRequest represents a request to draw a calibration grid
type GridRequest struct {
	SourcePath   string  `json:"source_path"`
	OutputPath   string  `json:"output_path,omitempty"`
	Spacing      float64 `json:"spacing,omitempty"`
	MajorSpacing float64 `json:"major_spacing,omitempty"`
}

// GridResult represents the result of a grid operation
type GridResult struct {
	OutputPath string           `json:"output_path"`
	PageCount  int              `json:"page_count"`
	Pages      []stamp.PageSize `json:"pages"`
	Options    grid.Options     `json:"options"`
}

// InspectRequest represents a request to read back the text of a document
type InspectRequest struct {
	Path string `json:"path"`
}

// PageText is the extracted text of one page
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
	// Stamped is the text of overlays stamped onto the page, e.g. filled values
	Stamped string `json:"stamped,omitempty"`
}

// InspectResult represents the extracted text of a document
type InspectResult struct {
	Path      string     `json:"path"`
	PageCount int        `json:"page_count"`
	Size      int64      `json:"size"`
	Pages     []PageText `json:"pages"`
}
