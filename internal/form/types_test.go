package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

func ptr[T any](v T) *T { return &v }

func TestConstructors(t *testing.T) {
	_, err := NewTextField("Credit To", Point{X: 100, Y: 50})
	assert.NoError(t, err)

	_, err = NewSpacedField("Account Number", Point{X: 50, Y: 100}, 0)
	assert.True(t, ferrors.IsKind(err, ferrors.KindFieldSpec))

	f, err := NewSpacedField("Account Number", Point{X: 50, Y: 100}, 18.5)
	require.NoError(t, err)
	assert.Equal(t, KindSpacedText, f.Kind)

	_, err = NewMultilineField("Remarks", Point{X: 50, Y: 200}, Point{X: 300, Y: 260})
	assert.NoError(t, err)

	_, err = NewCheckboxField("Cash", Point{X: 80, Y: 80})
	assert.NoError(t, err)
}

func TestFieldSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		field   FieldSpec
		wantErr string
	}{
		{
			name:  "empty value is inert even without start",
			field: FieldSpec{Name: "a", Kind: KindMultiline},
		},
		{
			name:    "value without start",
			field:   FieldSpec{Name: "a", Kind: KindText, Value: "x"},
			wantErr: "start is missing",
		},
		{
			name:    "multiline without end",
			field:   FieldSpec{Name: "a", Kind: KindMultiline, Start: &Point{}, Value: "x"},
			wantErr: "requires end",
		},
		{
			name: "multiline with bad line spacing",
			field: FieldSpec{
				Name: "a", Kind: KindMultiline, Start: &Point{}, End: &Point{X: 1, Y: 1},
				LineSpacing: ptr(0.0), Value: "x",
			},
			wantErr: "line_spacing",
		},
		{
			name:    "spaced without spacing",
			field:   FieldSpec{Name: "a", Kind: KindSpacedText, Start: &Point{}, Value: "x"},
			wantErr: "spacing > 0",
		},
		{
			name:  "checkbox",
			field: FieldSpec{Name: "a", Kind: KindCheckbox, Start: &Point{}, Value: "X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, ferrors.IsKind(err, ferrors.KindFieldSpec))
		})
	}
}

func TestFormDefinition_CloneIsDeep(t *testing.T) {
	orig := &FormDefinition{
		FormName: "Pay-in-Slip",
		Fields: []FieldSpec{
			{Name: "Amount", Kind: KindText, Start: &Point{X: 1, Y: 2}, FontSize: ptr(12.0), Bold: ptr(true)},
			{Name: "Remarks", Kind: KindMultiline, Start: &Point{}, End: &Point{X: 5, Y: 5}, LineSpacing: ptr(14.0)},
		},
	}

	c := orig.Clone()
	c.Fields[0].Value = "500"
	c.Fields[0].Start.X = 99
	*c.Fields[0].FontSize = 20
	*c.Fields[0].Bold = false
	c.Fields[1].End.Y = 50
	*c.Fields[1].LineSpacing = 1

	assert.Equal(t, "", orig.Fields[0].Value)
	assert.Equal(t, 1.0, orig.Fields[0].Start.X)
	assert.Equal(t, 12.0, *orig.Fields[0].FontSize)
	assert.True(t, *orig.Fields[0].Bold)
	assert.Equal(t, 5.0, orig.Fields[1].End.Y)
	assert.Equal(t, 14.0, *orig.Fields[1].LineSpacing)

	assert.Nil(t, (*FormDefinition)(nil).Clone())
}

func TestFormDefinition_WithValues(t *testing.T) {
	orig := &FormDefinition{
		FormName: "Pay-in-Slip",
		Fields: []FieldSpec{
			{Name: "Amount", Kind: KindText, Start: &Point{}},
			{Name: "Account Type", Kind: KindCheckbox, Start: &Point{}, Value: "X"},
			{Name: "Date", Kind: KindText, Start: &Point{}},
		},
	}

	filled := orig.WithValues(map[string]string{
		"Amount":       "5000",
		"Account Type": "",
		"Unknown":      "ignored",
	})

	assert.Equal(t, "5000", filled.Fields[0].Value)
	assert.Equal(t, "X", filled.Fields[1].Value, "empty values never overwrite")
	assert.Equal(t, "", filled.Fields[2].Value)
	assert.Equal(t, "", orig.Fields[0].Value, "source definition untouched")

	assert.Equal(t, []string{"Date"}, filled.Unfilled(nil))
	assert.Equal(t, []string{"Amount", "Date"}, orig.Unfilled(map[string]string{"Account Type": ""}))

	f, ok := filled.Field("Amount")
	assert.True(t, ok)
	assert.Equal(t, "5000", f.Value)
	_, ok = filled.Field("nope")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindText, ParseKind(""))
	assert.Equal(t, KindText, ParseKind("Text"))
	assert.Equal(t, KindSpacedText, ParseKind("spaced"))
	assert.Equal(t, KindMultiline, ParseKind("multiline"))
	assert.Equal(t, KindCheckbox, ParseKind(" checkbox "))
	assert.Equal(t, KindUnknown, ParseKind("radio"))
	assert.Equal(t, "spaced", KindSpacedText.String())
}
