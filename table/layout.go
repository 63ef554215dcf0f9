package table

// Layout is the measured form of a table: resolved column widths and, per row,
// the wrapped lines and height of every cell. Render draws exactly this.
type Layout struct {
	Widths []float64
	Rows   []LayoutRow
}

// LayoutRow is one measured row.
type LayoutRow struct {
	Header bool
	Height float64
	Cells  []LayoutCell
}

// LayoutCell is one measured cell. Lines holds the wrapped text in the
// engine's code page.
type LayoutCell struct {
	Text  string
	Lines []string
	Col   int
	Span  int
	Width float64
	Align string
	Style CellStyle
}

// Body returns the data rows, skipping header rows.
func (l Layout) Body() []LayoutRow {
	var out []LayoutRow
	for _, r := range l.Rows {
		if !r.Header {
			out = append(out, r)
		}
	}
	return out
}

// Texts returns the source text of every cell in the row.
func (r LayoutRow) Texts() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Text
	}
	return out
}

// Layout measures the table against the document's current font metrics.
// Every row is normalized to the column count: missing cells are blank and
// extra cells are dropped.
func (t *Table) Layout() Layout {
	widths := t.calculateWidths()
	l := Layout{Widths: widths}
	if len(widths) == 0 {
		return l
	}

	bodyIdx := 0
	for _, r := range t.rows {
		idx := -1
		if !r.isHeader {
			idx = bodyIdx
			bodyIdx++
		}
		l.Rows = append(l.Rows, t.layoutRow(r, widths, idx))
	}
	t.doc.ResetStyle()
	return l
}

func (t *Table) layoutRow(r *Row, widths []float64, bodyIdx int) LayoutRow {
	pad := t.style.CellPadding
	lr := LayoutRow{Header: r.isHeader}
	height := t.style.MinRowHeight

	col := 0
	for i := 0; col < len(widths); i++ {
		c := &Cell{colspan: 1}
		if i < len(r.cells) {
			c = r.cells[i]
		}
		span := c.span()
		if col+span > len(widths) {
			span = len(widths) - col
		}

		w := 0.0
		for _, cw := range widths[col : col+span] {
			w += cw
		}

		style := t.resolveCellStyle(c, r, bodyIdx, col)
		font := t.fontFor(style)
		t.doc.SetFont(font.Family, font.Style, font.Size)
		lines := t.splitLines(c.text, w-pad.Left-pad.Right)

		h := float64(len(lines))*font.Size*lineSpacing + pad.Top + pad.Bottom
		height = max(height, h)

		lr.Cells = append(lr.Cells, LayoutCell{
			Text:  c.text,
			Lines: lines,
			Col:   col,
			Span:  span,
			Width: w,
			Align: style.Align,
			Style: style,
		})
		col += span
	}

	lr.Height = height
	return lr
}

// splitLines wraps text to width using the current font. Empty text still
// occupies one line.
func (t *Table) splitLines(text string, width float64) []string {
	if text == "" {
		return []string{""}
	}
	if width <= 0 {
		return []string{t.doc.Encode(text)}
	}
	raw := t.doc.SplitLines([]byte(t.doc.Encode(text)), width)
	if len(raw) == 0 {
		return []string{""}
	}
	lines := make([]string, len(raw))
	for i, b := range raw {
		lines[i] = string(b)
	}
	return lines
}
