package grid

import (
	"bytes"
	"math"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/stamp"
	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

func blankPDF(t *testing.T, sizes ...stamp.PageSize) []byte {
	t.Helper()
	c := stamp.NewCanvas()
	for _, s := range sizes {
		c.AddPage(s.Width, s.Height)
	}
	data, err := c.Bytes()
	require.NoError(t, err)
	return data
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: DefaultOptions()},
		{name: "zero values use defaults", opts: Options{}},
		{name: "fine grid", opts: Options{Spacing: 10, MajorSpacing: 50}},
		{name: "equal", opts: Options{Spacing: 25, MajorSpacing: 25}},
		{name: "not a multiple", opts: Options{Spacing: 30, MajorSpacing: 100}, wantErr: true},
		{name: "major smaller", opts: Options{Spacing: 100, MajorSpacing: 50}, wantErr: true},
		{name: "smallest accepted", opts: Options{Spacing: MinSpacing, MajorSpacing: MinMajorSpacing}},
		{name: "spacing below minimum", opts: Options{Spacing: 0.01, MajorSpacing: 100}, wantErr: true},
		{name: "major below minimum", opts: Options{Spacing: 5, MajorSpacing: 5}, wantErr: true},
		{name: "tiny equal spacing", opts: Options{Spacing: 1, MajorSpacing: 1}, wantErr: true},
		{name: "not a number", opts: Options{Spacing: math.NaN(), MajorSpacing: 100}, wantErr: true},
		{name: "infinite major", opts: Options{Spacing: 50, MajorSpacing: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.True(t, ferrors.IsKind(err, ferrors.KindConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOverlay_Labels(t *testing.T) {
	data, err := Overlay([]stamp.PageSize{{Width: 300, Height: 400}, {Width: 400, Height: 300}}, DefaultOptions())
	require.NoError(t, err)

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, 2, r.NumPage())

	first, err := r.Page(1).GetPlainText(nil)
	require.NoError(t, err)
	assert.Contains(t, first, "Page 1 | 300 x 400 pts")
	assert.Contains(t, first, "(200,300)")
	assert.Contains(t, first, "Origin (0,0)")
	assert.NotContains(t, first, "(400,")

	second, err := r.Page(2).GetPlainText(nil)
	require.NoError(t, err)
	assert.Contains(t, second, "Page 2 | 400 x 300 pts")
	assert.Contains(t, second, "(400,300)")
}

func TestRender(t *testing.T) {
	src := blankPDF(t, stamp.PageSize{Width: 595.28, Height: 841.89}, stamp.PageSize{Width: 612, Height: 792})

	var out bytes.Buffer
	res, err := Render(bytes.NewReader(src), &out, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.PageCount)
	assert.Equal(t, DefaultOptions(), res.Options)
	assert.InDelta(t, 792, res.Pages[1].Height, 0.01)

	info, err := stamp.ReadDocumentInfo(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, info.PageCount)
	assert.InDelta(t, 612, info.Pages[1].Width, 0.01)
	assert.Greater(t, out.Len(), len(src))
}

func TestRender_Errors(t *testing.T) {
	var out bytes.Buffer
	_, err := Render(bytes.NewReader([]byte("garbage")), &out, Options{})
	assert.True(t, ferrors.IsKind(err, ferrors.KindDocument))

	_, err = Render(bytes.NewReader(blankPDF(t, stamp.PageSize{Width: 100, Height: 100})), &out,
		Options{Spacing: 30, MajorSpacing: 100})
	assert.True(t, ferrors.IsKind(err, ferrors.KindConfig))
	assert.Zero(t, out.Len())
}
