package table

// Cell is one entry of a row. A cell may span several columns.
type Cell struct {
	text    string
	colspan int
	style   *CellStyle
}

// Text returns the cell's text.
func (c *Cell) Text() string { return c.text }

// SetColspan makes the cell cover n columns. Values below 1 are ignored.
func (c *Cell) SetColspan(n int) *Cell {
	if n > 0 {
		c.colspan = n
	}
	return c
}

// SetStyle overrides the row and table style for this cell.
func (c *Cell) SetStyle(s CellStyle) *Cell {
	c.style = &s
	return c
}

// SetAlign sets the horizontal alignment ("L", "C" or "R").
func (c *Cell) SetAlign(align string) *Cell {
	if c.style == nil {
		c.style = &CellStyle{}
	}
	c.style.Align = align
	return c
}

func (c *Cell) span() int { return max(c.colspan, 1) }

// Row is a header or data row.
type Row struct {
	cells    []*Cell
	isHeader bool
}

// AddCell appends a cell holding text.
func (r *Row) AddCell(text string) *Cell {
	c := &Cell{text: text, colspan: 1}
	r.cells = append(r.cells, c)
	return c
}

// Cells returns the row's cells.
func (r *Row) Cells() []*Cell { return r.cells }

// columns is the number of grid columns the row's cells cover.
func (r *Row) columns() int {
	n := 0
	for _, c := range r.cells {
		n += c.span()
	}
	return n
}
