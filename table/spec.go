package table

import (
	"fmt"
	"strconv"
	"strings"

	formpdf "github.com/lvillar/formpdf"
)

// CellRef addresses a body cell by zero-based row and column. Row 0 is the
// first data row; the header row is not addressable.
type CellRef struct {
	Row, Col int
}

// String formats the reference as "row-col".
func (r CellRef) String() string {
	return fmt.Sprintf("%d-%d", r.Row, r.Col)
}

// ParseCellRef parses a "row-col" key.
func ParseCellRef(key string) (CellRef, error) {
	rs, cs, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok {
		return CellRef{}, fmt.Errorf("%w: cell key %q", formpdf.ErrInvalidParam, key)
	}
	row, err := strconv.Atoi(rs)
	if err != nil || row < 0 {
		return CellRef{}, fmt.Errorf("%w: cell key %q", formpdf.ErrInvalidParam, key)
	}
	col, err := strconv.Atoi(cs)
	if err != nil || col < 0 {
		return CellRef{}, fmt.Errorf("%w: cell key %q", formpdf.ErrInvalidParam, key)
	}
	return CellRef{Row: row, Col: col}, nil
}

// ParseCellStyles converts a "row-col" keyed map into typed references.
func ParseCellStyles(m map[string]formpdf.StyleTag) (map[CellRef]formpdf.StyleTag, error) {
	out := make(map[CellRef]formpdf.StyleTag, len(m))
	for k, tag := range m {
		ref, err := ParseCellRef(k)
		if err != nil {
			return nil, err
		}
		out[ref] = tag
	}
	return out, nil
}

// StyleFunc computes the style tag of a body cell from its value.
type StyleFunc func(row, col int, value string) formpdf.StyleTag

// Spec is the declarative description of a table: one header row, data rows
// of display strings, optional width percentages, centered columns and
// per-cell style tags. Zebra shades every other data row.
type Spec struct {
	Title      string
	Headers    []string
	Rows       [][]string
	ColWidths  []float64
	CenterCols []int
	CellStyles map[CellRef]formpdf.StyleTag
	StyleFunc  StyleFunc
	Zebra      bool
}

// StyleAt returns the tag for a body cell. Explicit CellStyles entries take
// precedence over StyleFunc.
func (s Spec) StyleAt(row, col int, value string) formpdf.StyleTag {
	if tag, ok := s.CellStyles[CellRef{Row: row, Col: col}]; ok {
		return tag
	}
	if s.StyleFunc != nil {
		return s.StyleFunc(row, col, value)
	}
	return formpdf.StyleNone
}

// FromSpec builds a Table from s. A non-empty Title becomes a header row
// spanning every column, above the column headers.
func FromSpec(doc *formpdf.Document, s Spec) *Table {
	t := New(doc)
	n := len(s.Headers)

	center := make(map[int]bool, len(s.CenterCols))
	for _, c := range s.CenterCols {
		center[c] = true
	}
	cols := make([]ColumnDef, n)
	for i := range cols {
		if i < len(s.ColWidths) {
			cols[i].Width = s.ColWidths[i]
		}
		if center[i] {
			cols[i].Align = "C"
		}
	}
	t.SetColumns(cols...)

	if s.Zebra {
		style := DefaultStyle(doc)
		zebra := formpdf.ColorZebra
		style.AlternateRows = &AlternateStyle{Odd: CellStyle{FillColor: &zebra}}
		t.SetStyle(style)
	}

	if s.Title != "" {
		t.AddHeaderRow().AddCell(s.Title).SetColspan(n).SetAlign("L")
	}

	hr := t.AddHeaderRow()
	for _, h := range s.Headers {
		hr.AddCell(h)
	}

	palette := doc.Palette()
	for r, cells := range s.Rows {
		row := t.AddRow()
		for c, v := range NormalizeRow(cells, n) {
			cell := row.AddCell(v)
			if st := TagCellStyle(palette, s.StyleAt(r, c, v)); st != nil {
				cell.SetStyle(*st)
			}
		}
	}
	return t
}

// RenderSpec draws s at the cursor. A spec without headers draws nothing.
func RenderSpec(doc *formpdf.Document, s Spec) error {
	if len(s.Headers) == 0 {
		return nil
	}
	return FromSpec(doc, s).Render()
}
