// Package xlsx exports a filled-in form as a single-sheet workbook. The sheet
// follows the printed layout: banner, field sections as label/value pairs,
// tables with a shaded header row and status fills, free text, signatures.
package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/formdoc"
	"github.com/lvillar/formpdf/table"
)

// Sheet layout constants, in Excel character widths.
const (
	TotalWidth    = 120.0
	MinColumns    = 4
	maxSheetName  = 31
	labelColWidth = 28.0
)

var badSheetChars = regexp.MustCompile(`[\[\]:*?/\\]+`)

type styles struct {
	title, label, header, cell, text int
	tags                             map[formpdf.StyleTag]int
}

type sheetWriter struct {
	f      *excelize.File
	sheet  string
	ncols  int
	row    int
	styles styles
}

// Export builds the workbook and writes it to w.
func Export(w io.Writer, spec *formdoc.FormSpec, r formdoc.Report) error {
	f, err := Build(spec, r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: writing workbook: %w", err)
	}
	return nil
}

// Bytes builds the workbook and returns its bytes.
func Bytes(spec *formdoc.FormSpec, r formdoc.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := Export(&buf, spec, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Build lays the report out into a new workbook. The caller closes it.
func Build(spec *formdoc.FormSpec, r formdoc.Report) (*excelize.File, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spec", formpdf.ErrInvalidSpec)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sw := &sheetWriter{f: f, sheet: SheetName(spec.Code), ncols: columnCount(spec), row: 1}
	if err := f.SetSheetName("Sheet1", sw.sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	if err := sw.build(spec, r); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: %s: %w", spec.Slug, err)
	}
	return f, nil
}

// SheetName makes a valid worksheet name out of a form code.
func SheetName(code string) string {
	name := strings.TrimSpace(badSheetChars.ReplaceAllString(code, "-"))
	if name == "" {
		name = "Formulario"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

func columnCount(spec *formdoc.FormSpec) int {
	n := MinColumns
	for _, sec := range spec.Tables() {
		if sec.Table != nil && len(sec.Table.Columns) > n {
			n = len(sec.Table.Columns)
		}
	}
	return n
}

func (sw *sheetWriter) build(spec *formdoc.FormSpec, r formdoc.Report) error {
	if err := sw.newStyles(); err != nil {
		return err
	}
	if err := sw.setWidths(spec); err != nil {
		return err
	}

	if err := sw.banner(spec, r); err != nil {
		return err
	}
	for _, sec := range spec.Sections {
		var err error
		switch sec.Kind {
		case formdoc.KindFields:
			err = sw.fields(sec, r)
		case formdoc.KindTable:
			err = sw.table(sec, r.Tables[sec.Key])
		case formdoc.KindText:
			err = sw.text(sec, r)
		}
		if err != nil {
			return err
		}
		sw.row++
	}
	return sw.signatures(spec, r)
}

func (sw *sheetWriter) newStyles() error {
	border := []excelize.Border{
		{Type: "left", Color: formpdf.ColorBorder.Hex(), Style: 1},
		{Type: "top", Color: formpdf.ColorBorder.Hex(), Style: 1},
		{Type: "right", Color: formpdf.ColorBorder.Hex(), Style: 1},
		{Type: "bottom", Color: formpdf.ColorBorder.Hex(), Style: 1},
	}
	headerFill := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{formpdf.ColorHeaderFill.Hex()}}
	wrap := &excelize.Alignment{Vertical: "center", WrapText: true}

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&sw.styles.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&sw.styles.label, &excelize.Style{Font: &excelize.Font{Bold: true}, Border: border, Alignment: wrap}},
		{&sw.styles.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Fill:      headerFill,
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&sw.styles.cell, &excelize.Style{Border: border, Alignment: wrap}},
		{&sw.styles.text, &excelize.Style{Border: border, Alignment: &excelize.Alignment{Vertical: "top", WrapText: true}}},
	}
	for _, d := range defs {
		id, err := sw.f.NewStyle(d.style)
		if err != nil {
			return err
		}
		*d.dst = id
	}

	sw.styles.tags = make(map[formpdf.StyleTag]int)
	for tag, ts := range formpdf.DefaultPalette() {
		id, err := sw.f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: ts.Text.Hex()},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{ts.Fill.Hex()}},
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return err
		}
		sw.styles.tags[tag] = id
	}
	return nil
}

// setWidths sizes the columns from the widest table's percentages. With no
// table the first column holds labels and the rest share what is left.
func (sw *sheetWriter) setWidths(spec *formdoc.FormSpec) error {
	var percents []float64
	for _, sec := range spec.Tables() {
		if sec.Table == nil || len(sec.Table.Columns) != sw.ncols {
			continue
		}
		for _, c := range sec.Table.Columns {
			percents = append(percents, c.Width)
		}
		break
	}
	if percents == nil {
		percents = []float64{labelColWidth / TotalWidth * 100}
	}

	for i, w := range table.ResolveWidths(percents, sw.ncols, TotalWidth) {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := sw.f.SetColWidth(sw.sheet, col, col, math.Max(w, 8)); err != nil {
			return err
		}
	}
	return nil
}

func (sw *sheetWriter) cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func (sw *sheetWriter) put(col int, v any, style int) error {
	ref := sw.cell(col, sw.row)
	if err := sw.f.SetCellValue(sw.sheet, ref, v); err != nil {
		return err
	}
	return sw.f.SetCellStyle(sw.sheet, ref, ref, style)
}

// spanRow writes v into the current row merged from col to the last column.
func (sw *sheetWriter) spanRow(col int, v any, style int) error {
	first, last := sw.cell(col, sw.row), sw.cell(sw.ncols, sw.row)
	if err := sw.f.SetCellValue(sw.sheet, first, v); err != nil {
		return err
	}
	if col < sw.ncols {
		if err := sw.f.MergeCell(sw.sheet, first, last); err != nil {
			return err
		}
	}
	return sw.f.SetCellStyle(sw.sheet, first, last, style)
}

func (sw *sheetWriter) banner(spec *formdoc.FormSpec, r formdoc.Report) error {
	if err := sw.spanRow(1, spec.Title, sw.styles.title); err != nil {
		return err
	}
	if err := sw.f.SetRowHeight(sw.sheet, sw.row, 24); err != nil {
		return err
	}
	sw.row++

	meta := [][2]string{{"Código", spec.Code}}
	if spec.Revision != "" {
		meta = append(meta, [2]string{"Revisión", spec.Revision})
	}
	if r.ID != "" {
		meta = append(meta, [2]string{"N°", r.ID})
	}
	for _, m := range meta {
		if err := sw.pair(m[0], m[1]); err != nil {
			return err
		}
	}
	sw.row++
	return nil
}

func (sw *sheetWriter) pair(label string, value any) error {
	if err := sw.put(1, label, sw.styles.label); err != nil {
		return err
	}
	if err := sw.spanRow(2, value, sw.styles.cell); err != nil {
		return err
	}
	sw.row++
	return nil
}

func (sw *sheetWriter) sectionTitle(title string) error {
	if title == "" {
		return nil
	}
	if err := sw.spanRow(1, strings.ToUpper(title), sw.styles.header); err != nil {
		return err
	}
	sw.row++
	return nil
}

func (sw *sheetWriter) fields(sec formdoc.Section, r formdoc.Report) error {
	if err := sw.sectionTitle(sec.Title); err != nil {
		return err
	}
	for _, def := range sec.Fields {
		v := r.Field(def.Key)
		if v == nil {
			v = def.Default
		}
		if err := sw.pair(def.Label, value(v, def.Decimals)); err != nil {
			return err
		}
	}
	return nil
}

func (sw *sheetWriter) table(sec formdoc.Section, rows []formdoc.Row) error {
	if sec.Table == nil || len(sec.Table.Columns) == 0 {
		return nil
	}
	if err := sw.sectionTitle(sec.Title); err != nil {
		return err
	}

	cols := sec.Table.Columns
	for i, c := range cols {
		if err := sw.put(i+1, c.Header, sw.styles.header); err != nil {
			return err
		}
	}
	sw.row++

	// Cell tags come from the same resolution the PDF uses.
	spec := formdoc.TableSpec(sec, rows)
	for ri, row := range rows {
		for ci, c := range cols {
			style := sw.styles.cell
			if tag, ok := spec.CellStyles[table.CellRef{Row: ri, Col: ci}]; ok {
				if id, ok := sw.styles.tags[tag]; ok {
					style = id
				}
			}
			if err := sw.put(ci+1, value(row[c.Key], c.Decimals), style); err != nil {
				return err
			}
		}
		sw.row++
	}
	return nil
}

func (sw *sheetWriter) text(sec formdoc.Section, r formdoc.Report) error {
	if err := sw.sectionTitle(sec.Title); err != nil {
		return err
	}
	text := r.Text(sec.Key)
	if err := sw.spanRow(1, text, sw.styles.text); err != nil {
		return err
	}
	lines := strings.Count(text, "\n") + 1
	if lines < 3 {
		lines = 3
	}
	if err := sw.f.SetRowHeight(sw.sheet, sw.row, float64(lines)*15); err != nil {
		return err
	}
	sw.row++
	return nil
}

func (sw *sheetWriter) signatures(spec *formdoc.FormSpec, r formdoc.Report) error {
	if len(spec.Signatures) == 0 {
		return nil
	}
	if err := sw.sectionTitle("Firmas"); err != nil {
		return err
	}
	for _, role := range spec.Signatures {
		sig := r.Signatures[role.Key]
		signed := sig.Name
		if sig.Data != "" && signed == "" {
			signed = "(firmado)"
		}
		if err := sw.pair(role.Label, signed); err != nil {
			return err
		}
	}
	return nil
}

// value keeps numbers numeric so the sheet stays computable. Numeric strings
// are written as captured, except when the column fixes the decimals.
func value(v any, decimals *int) any {
	if v == nil {
		return ""
	}
	if _, isBool := v.(bool); isBool {
		return formdoc.FormatValue(v, nil)
	}
	f, ok := formdoc.Float(v)
	if !ok {
		return formdoc.FormatValue(v, nil)
	}
	if _, isStr := v.(string); isStr && decimals == nil {
		return v
	}
	if decimals != nil {
		p := math.Pow(10, float64(*decimals))
		f = math.Round(f*p) / p
	}
	return f
}
