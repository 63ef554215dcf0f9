package table

import (
	formpdf "github.com/lvillar/formpdf"
)

// lineSpacing is the line height as a multiple of the font size.
const lineSpacing = 1.25

// ColumnDef defines the properties of a table column.
type ColumnDef struct {
	Width float64 // Percentage of the table width. 0 means an equal share of what is left.
	Align string  // Default alignment for this column ("L", "C", "R").
}

// Table is a high-level table builder for generating PDF tables.
type Table struct {
	doc     *formpdf.Document
	columns []ColumnDef
	rows    []*Row
	style   TableStyle
}

// New creates a new Table drawing into doc with the default style.
func New(doc *formpdf.Document) *Table {
	return &Table{
		doc:   doc,
		style: DefaultStyle(doc),
	}
}

// SetColumns sets column definitions for the table.
func (t *Table) SetColumns(cols ...ColumnDef) *Table {
	t.columns = cols
	return t
}

// SetStyle sets the table-wide style.
func (t *Table) SetStyle(s TableStyle) *Table {
	t.style = s
	return t
}

// AddRow adds a new data row to the table and returns it for chaining.
func (t *Table) AddRow() *Row {
	r := &Row{}
	t.rows = append(t.rows, r)
	return r
}

// AddHeaderRow adds a new header row and returns it for chaining.
// Header rows are kept ahead of data rows in insertion order.
func (t *Table) AddHeaderRow() *Row {
	r := &Row{isHeader: true}
	insertIdx := 0
	for i, existing := range t.rows {
		if !existing.isHeader {
			insertIdx = i
			break
		}
		insertIdx = i + 1
	}
	t.rows = append(t.rows, nil)
	copy(t.rows[insertIdx+1:], t.rows[insertIdx:])
	t.rows[insertIdx] = r
	return r
}

// Render draws the table at the cursor, starting at the left margin.
func (t *Table) Render() error {
	d := t.doc
	d.Start()
	if d.Err() {
		return d.Error()
	}

	layout := t.Layout()
	if len(layout.Widths) == 0 {
		return nil
	}

	startX, _, _, bottom := d.GetMargins()
	// Rows are placed whole; the engine must not break inside one.
	d.SetAutoPageBreak(false, bottom)
	defer d.SetAutoPageBreak(true, bottom)

	for _, row := range layout.Rows {
		d.EnsureSpace(row.Height)
		t.drawRow(row, startX)
	}

	d.ResetStyle()
	return d.Error()
}

// calculateWidths computes final column widths based on definitions and available space.
func (t *Table) calculateWidths() []float64 {
	total := t.doc.ContentWidth()

	numCols := len(t.columns)
	if numCols == 0 {
		for _, r := range t.rows {
			numCols = max(numCols, r.columns())
		}
	}

	percents := make([]float64, len(t.columns))
	for i, col := range t.columns {
		percents[i] = col.Width
	}
	return ResolveWidths(percents, numCols, total)
}

// ResolveWidths converts per-column percentage hints for n columns into
// absolute widths out of total. Missing or zero hints share whatever the
// explicit hints leave of 100%; if hints add up to more than 100% the columns
// are scaled down to fit.
func ResolveWidths(percents []float64, n int, total float64) []float64 {
	if n <= 0 {
		return nil
	}

	pct := make([]float64, n)
	fixed, free := 0.0, 0
	for i := 0; i < n; i++ {
		if i < len(percents) && percents[i] > 0 {
			pct[i] = percents[i]
			fixed += percents[i]
		} else {
			free++
		}
	}

	if free > 0 {
		share := (100 - fixed) / float64(free)
		if share <= 0 {
			share = 100 / float64(n)
		}
		for i := range pct {
			if pct[i] == 0 {
				pct[i] = share
			}
		}
	}

	sum := 0.0
	for _, p := range pct {
		sum += p
	}
	scale := 1.0
	if sum > 100 {
		scale = 100 / sum
	}

	widths := make([]float64, n)
	for i, p := range pct {
		widths[i] = total * p * scale / 100
	}
	return widths
}

// NormalizeRow pads cells with empty strings, or truncates them, to exactly n.
func NormalizeRow(cells []string, n int) []string {
	out := make([]string, n)
	copy(out, cells)
	return out
}

// drawRow renders a laid-out row at the cursor.
func (t *Table) drawRow(row LayoutRow, startX float64) {
	d := t.doc
	pad := t.style.CellPadding
	y := d.GetY()
	x := startX

	for _, c := range row.Cells {
		if c.Style.FillColor != nil {
			fc := c.Style.FillColor
			d.SetFillColor(fc.R, fc.G, fc.B)
			d.Rect(x, y, c.Width, row.Height, "F")
		}
		if b := t.style.Border; b != nil {
			d.SetDrawColor(b.Color.R, b.Color.G, b.Color.B)
			if b.Width > 0 {
				d.SetLineWidth(b.Width)
			}
			d.Rect(x, y, c.Width, row.Height, "D")
		}

		font := t.fontFor(c.Style)
		d.SetFont(font.Family, font.Style, font.Size)
		if tc := c.Style.TextColor; tc != nil {
			d.SetTextColor(tc.R, tc.G, tc.B)
		} else {
			d.SetTextColor(0, 0, 0)
		}

		lineH := font.Size * lineSpacing
		textY := y + (row.Height-float64(len(c.Lines))*lineH)/2
		for i, line := range c.Lines {
			d.SetXY(x+pad.Left, textY+float64(i)*lineH)
			d.CellFormat(c.Width-pad.Left-pad.Right, lineH, line, "", 0, c.Align, false, 0, "")
		}

		x += c.Width
	}

	d.SetXY(startX, y+row.Height)
}

// resolveCellStyle determines the effective style for a cell by merging
// table, column, header, alternate-row and cell styles, later ones winning.
func (t *Table) resolveCellStyle(cell *Cell, row *Row, bodyIdx, col int) CellStyle {
	var result CellStyle

	if t.style.CellFont != nil {
		result.Font = t.style.CellFont
	}
	if col < len(t.columns) && t.columns[col].Align != "" {
		result.Align = t.columns[col].Align
	}

	if row.isHeader && t.style.HeaderStyle != nil {
		mergeStyle(&result, t.style.HeaderStyle)
	}

	if !row.isHeader && t.style.AlternateRows != nil && bodyIdx >= 0 {
		if bodyIdx%2 == 0 {
			mergeStyle(&result, &t.style.AlternateRows.Even)
		} else {
			mergeStyle(&result, &t.style.AlternateRows.Odd)
		}
	}

	if cell.style != nil {
		mergeStyle(&result, cell.style)
	}

	if result.Align == "" {
		result.Align = "L"
	}
	return result
}

func (t *Table) fontFor(s CellStyle) formpdf.FontSpec {
	if s.Font != nil {
		return *s.Font
	}
	return t.doc.BaseFont()
}
