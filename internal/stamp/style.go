// Package stamp renders form field values into a page overlay and merges it onto the first
// page of an existing PDF.
package stamp

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/a3tai/mcp-form-filler/internal/form"
	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// Supported font families. Only the PDF base-14 families are available.
const (
	FamilyHelvetica = "Helvetica"
	FamilyCourier   = "Courier"
	FamilyTimes     = "Times-Roman"
)

// Hard defaults used when neither the field nor the caller says otherwise
const (
	DefaultFontSize = 10.0
	DefaultBold     = true
	DefaultFamily   = FamilyHelvetica

	// LineSpacingFactor scales the font size into the default multiline line spacing
	LineSpacingFactor = 1.3
)

// DefaultColor is navy blue
var DefaultColor = RGB{R: 0, G: 0, B: 0.5}

// RGB is a color with components in [0,1]
type RGB struct {
	R, G, B float64
}

// Bytes returns the color as 0-255 components
func (c RGB) Bytes() (r, g, b int) {
	conv := func(v float64) int {
		return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return conv(c.R), conv(c.G), conv(c.B)
}

// Hex returns the color as #rrggbb
func (c RGB) Hex() string {
	r, g, b := c.Bytes()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ParseHexColor converts #RRGGBB into an RGB color. The leading '#' is optional.
func ParseHexColor(s string) (RGB, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(s), "#")
	raw, err := hex.DecodeString(digits)
	if err != nil || len(raw) != 3 {
		return RGB{}, ferrors.Config(ferrors.ReasonInvalidStyle, "parse color",
			fmt.Sprintf("malformed color %q, expected #RRGGBB", s))
	}
	return RGB{
		R: float64(raw[0]) / 255,
		G: float64(raw[1]) / 255,
		B: float64(raw[2]) / 255,
	}, nil
}

// NormalizeFamily maps a family name onto the supported set. Unknown names become Helvetica.
func NormalizeFamily(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "courier":
		return FamilyCourier
	case "times", "times-roman", "times roman", "timesroman":
		return FamilyTimes
	default:
		return FamilyHelvetica
	}
}

// Font is a concrete font selection
type Font struct {
	Family string
	Bold   bool
	Size   float64
}

// Name returns the PostScript name of the selected weight variant
func (f Font) Name() string {
	switch NormalizeFamily(f.Family) {
	case FamilyCourier:
		if f.Bold {
			return "Courier-Bold"
		}
		return "Courier"
	case FamilyTimes:
		if f.Bold {
			return "Times-Bold"
		}
		return "Times-Roman"
	default:
		if f.Bold {
			return "Helvetica-Bold"
		}
		return "Helvetica"
	}
}

// EffectiveStyle is the fully resolved style of one field
type EffectiveStyle struct {
	FontFamily string  `json:"font_family"`
	FontSize   float64 `json:"font_size"`
	Bold       bool    `json:"bold"`
	Color      RGB     `json:"color"`
}

// Font returns the font selected by the style
func (s EffectiveStyle) Font() Font {
	return Font{Family: s.FontFamily, Bold: s.Bold, Size: s.FontSize}
}

// StyleOverrides carries caller-supplied style settings. Nil members are unset.
type StyleOverrides struct {
	FontFamily *string  `json:"font_family,omitempty"`
	FontSize   *float64 `json:"font_size,omitempty"`
	Bold       *bool    `json:"bold,omitempty"`
	ColorHex   *string  `json:"color_hex,omitempty"`
}

// Merge returns o with every member set in other taking precedence
func (o StyleOverrides) Merge(other StyleOverrides) StyleOverrides {
	if other.FontFamily != nil {
		o.FontFamily = other.FontFamily
	}
	if other.FontSize != nil {
		o.FontSize = other.FontSize
	}
	if other.Bold != nil {
		o.Bold = other.Bold
	}
	if other.ColorHex != nil {
		o.ColorHex = other.ColorHex
	}
	return o
}

// DefaultStyle returns the hard defaults
func DefaultStyle() EffectiveStyle {
	return EffectiveStyle{
		FontFamily: DefaultFamily,
		FontSize:   DefaultFontSize,
		Bold:       DefaultBold,
		Color:      DefaultColor,
	}
}

// GlobalStyle applies caller overrides on top of the hard defaults
func GlobalStyle(o StyleOverrides) (EffectiveStyle, error) {
	style := DefaultStyle()
	if o.FontFamily != nil {
		style.FontFamily = NormalizeFamily(*o.FontFamily)
	}
	if o.FontSize != nil {
		if *o.FontSize <= 0 {
			return EffectiveStyle{}, ferrors.Config(ferrors.ReasonInvalidStyle, "global style",
				fmt.Sprintf("font size must be positive, got %g", *o.FontSize))
		}
		style.FontSize = *o.FontSize
	}
	if o.Bold != nil {
		style.Bold = *o.Bold
	}
	if o.ColorHex != nil {
		c, err := ParseHexColor(*o.ColorHex)
		if err != nil {
			return EffectiveStyle{}, err
		}
		style.Color = c
	}
	return style, nil
}

// ResolveStyle merges a field's own attributes over the global style
func ResolveStyle(f form.FieldSpec, global EffectiveStyle) EffectiveStyle {
	style := global
	style.FontFamily = NormalizeFamily(style.FontFamily)
	if style.FontSize <= 0 {
		style.FontSize = DefaultFontSize
	}
	if f.FontSize != nil && *f.FontSize > 0 {
		style.FontSize = *f.FontSize
	}
	if f.Bold != nil {
		style.Bold = *f.Bold
	}
	return style
}
