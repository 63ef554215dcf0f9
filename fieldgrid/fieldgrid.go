// Package fieldgrid lays out labelled scalar values ("Pozo: X-12") in a grid
// of equal columns. A field marked FullWidth takes a row of its own.
package fieldgrid

import (
	"fmt"
	"strconv"

	formpdf "github.com/lvillar/formpdf"
)

// FullWidth is the Width that makes a field span the whole row.
const FullWidth = 100.0

const (
	padX     = 3.0
	padY     = 2.0
	labelGap = 3.0
)

// Field is one labelled value.
type Field struct {
	Label string
	Value string
	Width float64 // percent of the row; FullWidth spans it, 0 is one column
}

// IsFullWidth reports whether f occupies a row of its own.
func (f Field) IsFullWidth() bool {
	return f.Width >= FullWidth
}

// Of builds a field from an arbitrary value. nil becomes the empty string.
func Of(label string, v any) Field {
	return Field{Label: label, Value: Format(v)}
}

// Format renders a scalar for display. nil becomes "", floats drop trailing
// zeros and booleans read SÍ/NO.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "SÍ"
		}
		return "NO"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Partition groups fields into rows of at most columns items. Full-width
// fields close the current row and take one of their own. columns < 1 is
// treated as 1.
func Partition(fields []Field, columns int) [][]Field {
	if columns < 1 {
		columns = 1
	}
	var rows [][]Field
	var cur []Field
	flush := func() {
		if len(cur) > 0 {
			rows = append(rows, cur)
			cur = nil
		}
	}
	for _, f := range fields {
		if f.IsFullWidth() {
			flush()
			rows = append(rows, []Field{f})
			continue
		}
		cur = append(cur, f)
		if len(cur) == columns {
			flush()
		}
	}
	flush()
	return rows
}

// Render draws fields at the cursor. Each cell shows the label in bold with
// the value wrapped beside it, or below it when the label leaves too little
// room. Rows that do not fit move to the next page.
// An empty list draws nothing.
func Render(doc *formpdf.Document, fields []Field, columns int) error {
	if len(fields) == 0 {
		return nil
	}
	doc.Start()
	if doc.Err() {
		return doc.Error()
	}
	if columns < 1 {
		columns = 1
	}

	left, _, _, bottom := doc.GetMargins()
	total := doc.ContentWidth()
	colW := total / float64(columns)

	doc.SetAutoPageBreak(false, bottom)
	defer doc.SetAutoPageBreak(true, bottom)

	for _, row := range Partition(fields, columns) {
		cells := make([]cellLayout, len(row))
		height := 0.0
		for i, f := range row {
			w := colW
			switch {
			case f.IsFullWidth():
				w = total
			case f.Width > 0:
				w = total * f.Width / 100
			}
			cells[i] = measure(doc, f, w)
			height = max(height, cells[i].height)
		}

		doc.EnsureSpace(height)
		y := doc.GetY()
		x := left
		for _, c := range cells {
			draw(doc, c, x, y, height)
			x += c.width
		}
		doc.SetXY(left, y+height)
	}

	doc.ResetStyle()
	return doc.Error()
}

// minValueWidth is the narrowest value column kept beside the label. A label
// that leaves less wraps across the cell and the value goes underneath.
const minValueWidth = 24.0

type cellLayout struct {
	labels  [][]byte
	labelW  float64
	lines   [][]byte
	stacked bool
	width   float64
	height  float64
}

func measure(doc *formpdf.Document, f Field, w float64) cellLayout {
	base := doc.BaseFont()
	inner := w - 2*padX
	label := []byte(doc.Encode(f.Label + ":"))
	c := cellLayout{width: w}

	doc.SetFont(base.Family, "B", base.Size)
	labelW := doc.GetStringWidth(string(label)) + 2*doc.GetCellMargin()
	valueW := inner - labelW - labelGap
	if valueW < minValueWidth {
		c.stacked = true
		c.labelW = inner
		c.labels = doc.SplitLines(label, inner)
		valueW = inner
	} else {
		c.labelW = labelW
		c.labels = [][]byte{label}
	}

	doc.SetFont(base.Family, "", base.Size)
	if f.Value != "" {
		c.lines = doc.SplitLines([]byte(doc.Encode(f.Value)), valueW)
	}

	n := max(len(c.lines), 1)
	if c.stacked {
		n = len(c.labels) + len(c.lines)
	}
	c.height = float64(max(n, 1))*doc.LineHeight() + 2*padY
	return c
}

func draw(doc *formpdf.Document, c cellLayout, x, y, h float64) {
	base := doc.BaseFont()
	lineH := base.Size * 1.25

	doc.ResetStyle()
	doc.Rect(x, y, c.width, h, "D")

	doc.SetFont(base.Family, "B", base.Size)
	for i, line := range c.labels {
		doc.SetXY(x+padX, y+padY+float64(i)*lineH)
		doc.CellFormat(c.labelW, lineH, string(line), "", 0, "L", false, 0, "")
	}

	doc.SetFont(base.Family, "", base.Size)
	valueX := x + padX + c.labelW + labelGap
	valueW := c.width - 2*padX - c.labelW - labelGap
	top := y + padY
	if c.stacked {
		valueX, valueW = x+padX, c.width-2*padX
		top += float64(len(c.labels)) * lineH
	}
	for i, line := range c.lines {
		doc.SetXY(valueX, top+float64(i)*lineH)
		doc.CellFormat(valueW, lineH, string(line), "", 0, "L", false, 0, "")
	}
}
