package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FillError
		want string
	}{
		{
			name: "not found",
			err:  NotFound("load", "form %q not found", "Pay-in-Slip"),
			want: `load: [CONFIG_ERROR] form "Pay-in-Slip" not found`,
		},
		{
			name: "field spec",
			err:  FieldSpec("Remarks", "multiline field requires end"),
			want: `[FIELD_SPEC_ERROR] field "Remarks": multiline field requires end`,
		},
		{
			name: "document with cause",
			err:  Document("read", "cannot read source", fmt.Errorf("bad xref")),
			want: "read: [DOCUMENT_ERROR] cannot read source: bad xref",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindHelpers(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := fmt.Errorf("fill: %w", IO("write", "cannot write output", cause))

	assert.True(t, IsKind(wrapped, KindIO))
	assert.False(t, IsKind(wrapped, KindDocument))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindUnknown))

	assert.True(t, IsNotFound(NotFound("lookup", "missing")))
	assert.False(t, IsNotFound(Config(ReasonParse, "load", "bad json")))

	assert.True(t, KindConfig.Fatal())
	assert.True(t, KindDocument.Fatal())
	assert.False(t, KindFieldSpec.Fatal())
}

func TestDiagnostics(t *testing.T) {
	var d Diagnostics
	assert.Equal(t, "No field diagnostics", d.Summary())

	d.AddError("ignored", FieldSpec("Remarks", "multiline field requires end"))
	d.AddError("Amount", errors.New("boom"))
	d.Warn("Address", "dropped %d line(s)", 3)

	assert.Equal(t, 3, d.Len())
	errs := d.Errors()
	if assert.Len(t, errs, 2) {
		assert.Equal(t, "Remarks", errs[0].Field)
		assert.Equal(t, "multiline field requires end", errs[0].Message)
		assert.Equal(t, "boom", errs[1].Message)
	}
	assert.Len(t, d.Warnings(), 1)
	assert.Equal(t, "2 field(s) skipped, 1 warning(s)", d.Summary())
	assert.Equal(t, `warning: field "Address": dropped 3 line(s)`, d.Warnings()[0].String())
}
