package form

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

const payInSlipJSON = `[
  {
    "form_name": "Pay-in-Slip",
    "fields": [
      {"field": "Date", "start": [420, 62], "spacing": 18.5},
      {"field": "Account Type", "type": "checkbox", "start": [80, 80], "value": "X"},
      {"field": "Credit To", "start": [100, 50]},
      {"field": "Amount in Words", "type": "multiline", "start": [50, 200], "end": [300, 260], "line_spacing": 14},
      {"field": "Stamp", "type": "hologram", "start": [10, 10]}
    ]
  },
  {
    "form_name": "Withdrawal",
    "fields": [{"field": "Amount", "start": [10, 20], "font_size": 12, "bold": false}]
  }
]`

const withdrawalYAML = `
- form_name: Withdrawal
  fields:
    - field: Amount
      start: [10, 20]
      font_size: 12
      bold: false
`

func TestLoadDefinition(t *testing.T) {
	def, err := LoadDefinition(strings.NewReader(payInSlipJSON), "coords.json", "Pay-in-Slip")
	require.NoError(t, err)
	require.Len(t, def.Fields, 5)

	assert.Equal(t, KindSpacedText, def.Fields[0].Kind, "spacing without type reads as spaced text")
	assert.Equal(t, KindCheckbox, def.Fields[1].Kind)
	assert.Equal(t, "X", def.Fields[1].Value)
	assert.Equal(t, KindText, def.Fields[2].Kind)
	assert.Equal(t, &Point{X: 100, Y: 50}, def.Fields[2].Start)

	ml := def.Fields[3]
	assert.Equal(t, KindMultiline, ml.Kind)
	require.NotNil(t, ml.End)
	require.NotNil(t, ml.LineSpacing)
	assert.Equal(t, 14.0, *ml.LineSpacing)

	unknown := def.Fields[4]
	assert.Equal(t, KindUnknown, unknown.Kind)
	assert.NoError(t, unknown.Validate(), "empty value is inert")
	unknown.Value = "x"
	assert.True(t, ferrors.IsKind(unknown.Validate(), ferrors.KindFieldSpec))
}

func TestLoadDefinition_JSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := LoadDefinition(strings.NewReader(payInSlipJSON), "coords.json", "Withdrawal")
	require.NoError(t, err)
	fromYAML, err := LoadDefinition(strings.NewReader(withdrawalYAML), "coords.yaml", "Withdrawal")
	require.NoError(t, err)

	if diff := cmp.Diff(fromJSON, fromYAML, cmpopts.IgnoreUnexported(FieldSpec{})); diff != "" {
		t.Errorf("JSON and YAML definitions differ (-json +yaml):\n%s", diff)
	}
}

func TestLoadDefinition_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		formName string
		notFound bool
	}{
		{name: "missing form", data: payInSlipJSON, formName: "Demand Draft", notFound: true},
		{name: "case sensitive", data: payInSlipJSON, formName: "pay-in-slip", notFound: true},
		{name: "empty document", data: "  ", formName: "Pay-in-Slip"},
		{name: "garbage", data: "{[}", formName: "Pay-in-Slip"},
		{name: "missing form_name", data: `[{"fields": []}]`, formName: ""},
		{
			name:     "duplicate field",
			data:     `[{"form_name": "A", "fields": [{"field": "x"}, {"field": "x"}]}]`,
			formName: "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := LoadDefinition(strings.NewReader(tt.data), "coords.json", tt.formName)
			require.Error(t, err)
			assert.Nil(t, def)
			assert.True(t, ferrors.IsKind(err, ferrors.KindConfig), "got %v", err)
			assert.Equal(t, tt.notFound, ferrors.IsNotFound(err))
		})
	}
}

func TestLoadDefinitionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coords.json")
	require.NoError(t, os.WriteFile(path, []byte(payInSlipJSON), 0o644))

	def, err := LoadDefinitionFile(path, "Withdrawal")
	require.NoError(t, err)
	assert.Equal(t, []string{"Amount"}, def.FieldNames())

	defs, err := LoadDefinitionsFile(path)
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	_, err = LoadDefinitionFile(filepath.Join(dir, "missing.json"), "Withdrawal")
	assert.True(t, ferrors.IsNotFound(err))
}

func TestLoadDefinition_MalformedPoint(t *testing.T) {
	data := `[{"form_name": "A", "fields": [{"field": "x", "start": [1, 2, 3], "value": "v"}]}]`
	def, err := LoadDefinition(strings.NewReader(data), "coords.json", "A")
	require.NoError(t, err)

	err = def.Fields[0].Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected [x, y]")
}
