package formdoc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/fieldgrid"
	"github.com/lvillar/formpdf/header"
	"github.com/lvillar/formpdf/signature"
	"github.com/lvillar/formpdf/table"
)

const sectionGap = 6.0

// Render assembles the form and writes the PDF to w.
func Render(w io.Writer, spec *FormSpec, r Report, opts ...formpdf.Option) error {
	doc, err := Build(spec, r, opts...)
	if err != nil {
		return err
	}
	return doc.Finish(w)
}

// RenderBytes assembles the form and returns the PDF.
func RenderBytes(spec *FormSpec, r Report, opts ...formpdf.Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, spec, r, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Build assembles the form into a new document: header on every page, the
// sections in declared order, then the signatures. The definition's orientation
// applies unless opts override it.
func Build(spec *FormSpec, r Report, opts ...formpdf.Option) (*formpdf.Document, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spec", formpdf.ErrInvalidSpec)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	orientation, _ := formpdf.ParseOrientation(spec.Orientation)

	all := append([]formpdf.Option{
		formpdf.WithOrientation(orientation),
		formpdf.WithTitle(spec.Title),
	}, opts...)
	doc := formpdf.NewDocument(all...)

	header.Install(doc, headerBlock(spec, r))
	doc.Start()

	for i, sec := range spec.Sections {
		if i > 0 {
			doc.SetY(doc.GetY() + sectionGap)
		}
		if err := renderSection(doc, sec, r); err != nil {
			return nil, fmt.Errorf("formdoc: %s: %w", spec.Slug, err)
		}
	}

	if len(spec.Signatures) > 0 {
		doc.SetY(doc.GetY() + sectionGap)
		if err := signature.Render(doc, signatureEntries(spec, r)); err != nil {
			return nil, fmt.Errorf("formdoc: %s: %w", spec.Slug, err)
		}
	}

	if doc.Err() {
		return nil, doc.Error()
	}
	return doc, nil
}

func headerBlock(spec *FormSpec, r Report) header.Block {
	var sub []string
	if spec.Revision != "" {
		sub = append(sub, "Revisión: "+spec.Revision)
	}
	if r.ID != "" {
		sub = append(sub, "N°: "+shortID(r.ID))
	}
	b := header.Block{
		Title:    spec.Title,
		Code:     spec.Code,
		Subtitle: strings.Join(sub, "\n"),
	}
	if spec.Barcode != "" && r.ID != "" {
		b.Barcode = &header.Barcode{
			Symbology: header.Symbology(spec.Barcode),
			Payload:   spec.Slug + ":" + r.ID,
		}
	}
	return b
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

func renderSection(doc *formpdf.Document, sec Section, r Report) error {
	switch sec.Kind {
	case KindFields:
		if sec.Title != "" {
			sectionTitle(doc, sec.Title)
		}
		return fieldgrid.Render(doc, Fields(sec, r), sec.Columns)
	case KindTable:
		return table.RenderSpec(doc, TableSpec(sec, r.Tables[sec.Key]))
	case KindText:
		if sec.Title != "" {
			sectionTitle(doc, sec.Title)
		}
		textBlock(doc, r.Text(sec.Key))
		return doc.Error()
	}
	return fmt.Errorf("%w: unknown section kind %q", formpdf.ErrInvalidSpec, sec.Kind)
}

// Fields resolves a fields section against the report. Missing values fall
// back to the definition's default, then to blank.
func Fields(sec Section, r Report) []fieldgrid.Field {
	out := make([]fieldgrid.Field, 0, len(sec.Fields))
	for _, def := range sec.Fields {
		v := r.Field(def.Key)
		if v == nil {
			v = def.Default
		}
		out = append(out, fieldgrid.Field{
			Label: def.Label,
			Value: FormatValue(v, def.Decimals),
			Width: def.Width,
		})
	}
	return out
}

// TableSpec flattens report rows into a table spec in column order, resolving
// each cell's style tag from the column's value styles and, for highlighted
// columns, the row's status.
func TableSpec(sec Section, rows []Row) table.Spec {
	def := sec.Table
	if def == nil {
		def = &TableDef{}
	}

	s := table.Spec{
		Title:      sec.Title,
		Headers:    make([]string, len(def.Columns)),
		ColWidths:  make([]float64, len(def.Columns)),
		CellStyles: make(map[table.CellRef]formpdf.StyleTag),
		Zebra:      def.Zebra,
	}
	for i, c := range def.Columns {
		s.Headers[i] = c.Header
		s.ColWidths[i] = c.Width
		if c.Center {
			s.CenterCols = append(s.CenterCols, i)
		}
	}

	for ri, row := range rows {
		cells := make([]string, len(def.Columns))
		status := normalizeKey(fieldgrid.Format(row[def.StatusKey]))
		for ci, c := range def.Columns {
			cells[ci] = FormatValue(row[c.Key], c.Decimals)

			tag := lookupTag(c.Styles, cells[ci])
			if tag == formpdf.StyleNone && c.Highlight && def.StatusKey != "" {
				tag = lookupTag(def.StatusStyles, status)
			}
			if tag != formpdf.StyleNone {
				s.CellStyles[table.CellRef{Row: ri, Col: ci}] = tag
			}
		}
		s.Rows = append(s.Rows, cells)
	}

	for len(s.Rows) < def.MinRows {
		s.Rows = append(s.Rows, nil)
	}
	return s
}

func lookupTag(m map[string]formpdf.StyleTag, value string) formpdf.StyleTag {
	if len(m) == 0 || value == "" {
		return formpdf.StyleNone
	}
	if tag, ok := m[value]; ok {
		return tag
	}
	key := normalizeKey(value)
	for k, tag := range m {
		if normalizeKey(k) == key {
			return tag
		}
	}
	return formpdf.StyleNone
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func signatureEntries(spec *FormSpec, r Report) []signature.Entry {
	entries := make([]signature.Entry, len(spec.Signatures))
	for i, role := range spec.Signatures {
		sig := r.Signatures[role.Key]
		entries[i] = signature.Entry{Label: role.Label, Data: sig.Data, Name: sig.Name}
	}
	return entries
}

// sectionTitle draws a shaded title bar across the content width.
func sectionTitle(doc *formpdf.Document, title string) {
	base := doc.BaseFont()
	h := base.Size*1.25 + 4
	doc.EnsureSpace(h + 2*doc.LineHeight())

	left, _, _, _ := doc.GetMargins()
	doc.ResetStyle()
	fill := formpdf.ColorHeaderFill
	doc.SetFillColor(fill.R, fill.G, fill.B)
	doc.SetFont(base.Family, "B", base.Size)
	doc.SetX(left)
	doc.CellFormat(doc.ContentWidth(), h, doc.Encode(strings.ToUpper(title)), "1", 1, "L", true, 0, "")
	doc.ResetStyle()
}

// textBlock draws free text in a bordered box at least three lines tall.
func textBlock(doc *formpdf.Document, text string) {
	lineH := doc.LineHeight()
	body := text
	if n := strings.Count(body, "\n") + 1; n < 3 {
		body += strings.Repeat("\n ", 3-n)
	}
	left, _, _, _ := doc.GetMargins()
	doc.SetX(left)
	doc.MultiCell(doc.ContentWidth(), lineH, doc.Encode(body), "1", "L", false)
}
