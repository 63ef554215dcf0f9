// Package table renders header-plus-rows tables into a formpdf.Document.
//
// Column widths are percentages of the table width, text wraps inside its
// column, and individual cells can be highlighted through style tags. Rows
// are never split: a row that does not fit moves whole to the next page.
// Headers are not repeated on continuation pages.
package table

import formpdf "github.com/lvillar/formpdf"

// Padding defines spacing inside a cell.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// UniformPadding creates a Padding with the same value on all sides.
func UniformPadding(v float64) Padding {
	return Padding{Top: v, Right: v, Bottom: v, Left: v}
}

// BorderStyle defines the appearance of cell borders.
type BorderStyle struct {
	Width float64
	Color formpdf.RGBColor
}

// CellStyle defines the visual appearance of a cell.
type CellStyle struct {
	FillColor *formpdf.RGBColor
	TextColor *formpdf.RGBColor
	Font      *formpdf.FontSpec
	Align     string // "L", "C", "R"
}

// AlternateStyle defines alternating row colors.
type AlternateStyle struct {
	Even CellStyle
	Odd  CellStyle
}

// TableStyle defines the overall appearance of a table.
type TableStyle struct {
	Border        *BorderStyle
	AlternateRows *AlternateStyle
	HeaderStyle   *CellStyle
	CellPadding   Padding
	CellFont      *formpdf.FontSpec
	MinRowHeight  float64
}

// DefaultStyle is the look shared by every form: thin grey borders and a bold
// header on a shaded background.
func DefaultStyle(doc *formpdf.Document) TableStyle {
	base := doc.BaseFont()
	fill := formpdf.ColorHeaderFill
	return TableStyle{
		Border:      &BorderStyle{Width: 0.5, Color: formpdf.ColorBorder},
		CellPadding: Padding{Top: 2, Right: 3, Bottom: 2, Left: 3},
		CellFont:    &base,
		HeaderStyle: &CellStyle{
			FillColor: &fill,
			Font:      &formpdf.FontSpec{Family: base.Family, Style: "B", Size: base.Size},
			Align:     "C",
		},
		MinRowHeight: base.Size * 1.25,
	}
}

// TagCellStyle resolves a style tag through the palette into a cell style.
// It returns nil when the tag has no entry.
func TagCellStyle(p formpdf.Palette, tag formpdf.StyleTag) *CellStyle {
	ts, ok := p.Lookup(tag)
	if !ok {
		return nil
	}
	fill, text := ts.Fill, ts.Text
	return &CellStyle{FillColor: &fill, TextColor: &text}
}

// mergeStyle copies non-nil fields from src to dst.
func mergeStyle(dst, src *CellStyle) {
	if src.FillColor != nil {
		dst.FillColor = src.FillColor
	}
	if src.TextColor != nil {
		dst.TextColor = src.TextColor
	}
	if src.Font != nil {
		dst.Font = src.Font
	}
	if src.Align != "" {
		dst.Align = src.Align
	}
}
