package formpdf

import "fmt"

// RGBColor represents an RGB color value.
type RGBColor struct {
	R, G, B int
}

// FontSpec defines font properties for text rendering.
type FontSpec struct {
	Family string
	Style  string  // "", "B", "I", "BI"
	Size   float64 // in points
}

// StyleTag names a visual override applied to an individual table cell,
// typically to highlight a pass/fail or status value.
type StyleTag string

// Built-in style tags.
const (
	StyleNone     StyleTag = ""
	StyleApproved StyleTag = "approved"
	StyleFailed   StyleTag = "failed"
	StyleWarning  StyleTag = "warning"
	StylePending  StyleTag = "pending"
	StyleInfo     StyleTag = "info"
)

// TagStyle is the background and text color a StyleTag resolves to.
type TagStyle struct {
	Fill RGBColor
	Text RGBColor
}

// Palette maps style tags to colors.
type Palette map[StyleTag]TagStyle

// DefaultPalette returns the tints used across the form catalog.
func DefaultPalette() Palette {
	return Palette{
		StyleApproved: {Fill: RGBColor{212, 237, 218}, Text: RGBColor{21, 87, 36}},
		StyleFailed:   {Fill: RGBColor{248, 215, 218}, Text: RGBColor{114, 28, 36}},
		StyleWarning:  {Fill: RGBColor{255, 243, 205}, Text: RGBColor{133, 100, 4}},
		StylePending:  {Fill: RGBColor{233, 236, 239}, Text: RGBColor{73, 80, 87}},
		StyleInfo:     {Fill: RGBColor{209, 236, 241}, Text: RGBColor{12, 84, 96}},
	}
}

// Lookup resolves tag. StyleNone and unknown tags report false.
func (p Palette) Lookup(tag StyleTag) (TagStyle, bool) {
	if tag == StyleNone {
		return TagStyle{}, false
	}
	s, ok := p[tag]
	return s, ok
}

// Colors shared by the blocks.
var (
	ColorBlack      = RGBColor{0, 0, 0}
	ColorBorder     = RGBColor{120, 120, 120}
	ColorHeaderFill = RGBColor{217, 225, 242}
	ColorMuted      = RGBColor{110, 110, 110}
	ColorZebra      = RGBColor{242, 242, 242}
)

// Hex returns the color as "#RRGGBB".
func (c RGBColor) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R&0xff, c.G&0xff, c.B&0xff)
}
