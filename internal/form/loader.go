package form

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

type definitionFile struct {
	FormName string      `json:"form_name" yaml:"form_name"`
	Fields   []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Field       string    `json:"field" yaml:"field"`
	Type        string    `json:"type" yaml:"type"`
	Start       []float64 `json:"start" yaml:"start"`
	End         []float64 `json:"end" yaml:"end"`
	Spacing     float64   `json:"spacing" yaml:"spacing"`
	FontSize    *float64  `json:"font_size" yaml:"font_size"`
	Bold        *bool     `json:"bold" yaml:"bold"`
	LineSpacing *float64  `json:"line_spacing" yaml:"line_spacing"`
	Value       string    `json:"value" yaml:"value"`
}

// LoadDefinition reads a coordinates document and returns the definition named formName.
// Matching is exact and case-sensitive.
func LoadDefinition(r io.Reader, source, formName string) (*FormDefinition, error) {
	defs, err := LoadDefinitions(r, source)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		if defs[i].FormName == formName {
			return &defs[i], nil
		}
	}
	return nil, ferrors.NotFound("load definition", "form %q not found in %s", formName, source)
}

// LoadDefinitionFile is LoadDefinition for a file on disk
func LoadDefinitionFile(path, formName string) (*FormDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.NotFound("load definition", "cannot open coordinates file %s", path).Wrap(err)
	}
	defer f.Close()
	return LoadDefinition(f, path, formName)
}

// LoadDefinitionsFile returns every definition in a coordinates file
func LoadDefinitionsFile(path string) ([]FormDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.NotFound("load definitions", "cannot open coordinates file %s", path).Wrap(err)
	}
	defer f.Close()
	return LoadDefinitions(f, path)
}

// LoadDefinitions parses a JSON or YAML sequence of form definitions
func LoadDefinitions(r io.Reader, source string) ([]FormDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ferrors.Config(ferrors.ReasonParse, "load definitions",
			fmt.Sprintf("cannot read %s", source)).Wrap(err)
	}

	var raw []definitionFile
	if err := decode(data, &raw); err != nil {
		return nil, ferrors.Config(ferrors.ReasonParse, "load definitions",
			fmt.Sprintf("parse %s: %v", source, err))
	}

	defs := make([]FormDefinition, 0, len(raw))
	for _, d := range raw {
		def, err := normaliseDefinition(d, source)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// decode tries JSON first and falls back to YAML
func decode(data []byte, out any) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("document is empty")
	}
	jsonErr := json.Unmarshal(data, out)
	if jsonErr == nil {
		return nil
	}
	if err := yaml.Unmarshal(data, out); err == nil {
		return nil
	}
	return fmt.Errorf("invalid JSON or YAML: %w", jsonErr)
}

func normaliseDefinition(raw definitionFile, source string) (FormDefinition, error) {
	name := strings.TrimSpace(raw.FormName)
	if name == "" {
		return FormDefinition{}, ferrors.Config(ferrors.ReasonParse, "load definitions",
			fmt.Sprintf("%s defines a form without form_name", source))
	}

	def := FormDefinition{FormName: raw.FormName, Fields: make([]FieldSpec, 0, len(raw.Fields))}
	seen := make(map[string]bool, len(raw.Fields))
	for _, rf := range raw.Fields {
		if seen[rf.Field] {
			return FormDefinition{}, ferrors.Config(ferrors.ReasonParse, "load definitions",
				fmt.Sprintf("form %q in %s has duplicate field %q", raw.FormName, source, rf.Field))
		}
		seen[rf.Field] = true
		def.Fields = append(def.Fields, normaliseField(rf))
	}
	return def, nil
}

func normaliseField(rf fieldFile) FieldSpec {
	f := FieldSpec{
		Name:        rf.Field,
		Kind:        ParseKind(rf.Type),
		Spacing:     rf.Spacing,
		FontSize:    rf.FontSize,
		Bold:        rf.Bold,
		LineSpacing: rf.LineSpacing,
		Value:       rf.Value,
	}

	// Older catalogs mark boxed-cell fields only by giving them a spacing.
	if f.Kind == KindText && strings.TrimSpace(rf.Type) == "" && rf.Spacing > 0 {
		f.Kind = KindSpacedText
	}
	if f.Kind == KindUnknown {
		f.problem = fmt.Sprintf("unknown field type %q", rf.Type)
	}

	var err error
	if f.Start, err = toPoint(rf.Start); err != nil {
		f.problem = "start: " + err.Error()
	}
	if f.End, err = toPoint(rf.End); err != nil {
		f.problem = "end: " + err.Error()
	}
	return f
}

func toPoint(xy []float64) (*Point, error) {
	switch len(xy) {
	case 0:
		return nil, nil
	case 2:
		return &Point{X: xy[0], Y: xy[1]}, nil
	default:
		return nil, fmt.Errorf("expected [x, y], got %d value(s)", len(xy))
	}
}
