// Package formpdf is the document shell shared by every printable form: an A4
// page in portrait or landscape orientation with fixed margins, a base
// sans-serif font and a style-tag palette, on top of the gofpdf engine.
//
// The block packages (header, fieldgrid, table, signature) draw into a
// *Document, and formdoc assembles them from a declarative form definition.
//
//	doc := formpdf.NewDocument(formpdf.WithOrientation(formpdf.OrientationLandscape))
//	doc.Start()
//	// ... draw blocks ...
//	err := doc.Finish(w)
package formpdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Orientation is the page orientation of a document.
type Orientation string

// Supported orientations.
const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// ParseOrientation accepts "portrait"/"landscape" and their one-letter forms.
// The empty string means portrait.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "portrait", "p", "vertical":
		return OrientationPortrait, nil
	case "landscape", "l", "horizontal":
		return OrientationLandscape, nil
	}
	return "", fmt.Errorf("%w: orientation %q", ErrInvalidParam, s)
}

func (o Orientation) code() string {
	if o == OrientationLandscape {
		return "L"
	}
	return "P"
}

// Defaults for the document shell.
const (
	DefaultMargin     = 15.0
	DefaultFontSize   = 8.0
	DefaultFontFamily = "Helvetica"
)

// Document is a single A4 PDF being assembled. It embeds *gofpdf.Fpdf so blocks
// can use the engine's primitives directly.
type Document struct {
	*gofpdf.Fpdf

	cfg       documentConfig
	tr        func(string) string
	pageStart []func()
	bodyTop   float64

	letterhead bool
}

// NewDocument creates a new document using functional options.
// If no options are specified, defaults to portrait A4, 15pt margins and
// Helvetica 8pt.
func NewDocument(opts ...Option) *Document {
	cfg := documentConfig{
		orientation:  OrientationPortrait,
		margin:       DefaultMargin,
		fontSize:     DefaultFontSize,
		compress:     true,
		creationDate: DefaultCreationDate,
		palette:      DefaultPalette(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	pdf := gofpdf.New(cfg.orientation.code(), "pt", "A4", "")
	d := &Document{
		Fpdf: pdf,
		cfg:  cfg,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if d.tr == nil {
		d.tr = func(s string) string { return s }
	}

	pdf.SetMargins(cfg.margin, cfg.margin, cfg.margin)
	pdf.SetAutoPageBreak(true, cfg.margin)
	pdf.SetCompression(cfg.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(cfg.creationDate)
	pdf.SetModificationDate(cfg.creationDate)
	pdf.SetCreator("formpdf", false)
	if cfg.title != "" {
		pdf.SetTitle(cfg.title, true)
	}
	if cfg.pageNumbers {
		pdf.AliasNbPages("")
	}
	pdf.SetFont(DefaultFontFamily, "", cfg.fontSize)

	if len(cfg.letterhead) > 0 {
		d.registerLetterhead(cfg.letterhead)
	}

	pdf.SetHeaderFunc(d.beginPage)
	pdf.SetFooterFunc(d.endPage)
	return d
}

// letterheadImage is the registry name of the letterhead image.
const letterheadImage = "formpdf-letterhead"

// registerLetterhead embeds the letterhead image once; every page then draws
// the same image object.
func (d *Document) registerLetterhead(data []byte) {
	if _, err := d.RegisterImageData(letterheadImage, data); err != nil {
		d.Fail("letterhead", fmt.Errorf("%w: %w", ErrInvalidParam, err))
		return
	}
	d.letterhead = true
}

func (d *Document) beginPage() {
	if d.letterhead {
		w, h := d.GetPageSize()
		d.ImageOptions(letterheadImage, 0, 0, w, h, false, gofpdf.ImageOptions{}, 0, "")
	}
	for _, fn := range d.pageStart {
		fn()
	}
	d.ResetStyle()
	d.bodyTop = d.GetY()
}

func (d *Document) endPage() {
	w, h := d.GetPageSize()
	if d.cfg.pageNumbers {
		d.SetFont(DefaultFontFamily, "", d.cfg.fontSize-1.5)
		d.SetTextColor(ColorMuted.R, ColorMuted.G, ColorMuted.B)
		d.SetXY(d.cfg.margin, h-d.cfg.margin+3)
		label := d.Encode(fmt.Sprintf("Página %d de {nb}", d.PageNo()))
		d.CellFormat(w-2*d.cfg.margin, 8, label, "", 0, "R", false, 0, "")
	}
	if d.cfg.draft != "" {
		d.drawWatermark(w, h)
	}
}

// drawWatermark renders the draft text centered and rotated on the current page.
func (d *Document) drawWatermark(pageW, pageH float64) {
	const size = 60.0
	d.SetFont(DefaultFontFamily, "B", size)
	d.SetTextColor(200, 200, 200)
	d.SetAlpha(0.3, "Normal")

	text := d.Encode(d.cfg.draft)
	textW := d.GetStringWidth(text)
	cx, cy := pageW/2, pageH/2

	d.TransformBegin()
	d.TransformRotate(45, cx, cy)
	d.Fpdf.Text(cx-textW/2, cy+size/3, text)
	d.TransformEnd()

	d.SetAlpha(1.0, "Normal")
}

// OnPageStart registers fn to run at the top of every page, after the
// letterhead. Blocks that repeat on every page (the header) use it.
func (d *Document) OnPageStart(fn func()) {
	d.pageStart = append(d.pageStart, fn)
}

// Start adds the first page if none exists yet.
func (d *Document) Start() {
	if d.PageNo() == 0 {
		d.AddPage()
	}
}

// Encode converts UTF-8 text to the code page of the core fonts.
func (d *Document) Encode(s string) string {
	return d.tr(s)
}

// Orientation reports the page orientation.
func (d *Document) Orientation() Orientation {
	return d.cfg.orientation
}

// Palette returns the style-tag palette.
func (d *Document) Palette() Palette {
	return d.cfg.palette
}

// Brand returns the brand mark.
func (d *Document) Brand() Brand {
	return d.cfg.brand
}

// BaseFont returns the document's base font.
func (d *Document) BaseFont() FontSpec {
	return FontSpec{Family: DefaultFontFamily, Size: d.cfg.fontSize}
}

// ContentWidth is the page width minus left and right margins.
func (d *Document) ContentWidth() float64 {
	w, _ := d.GetPageSize()
	l, _, r, _ := d.GetMargins()
	return w - l - r
}

// LineHeight returns the line height for the current font.
func (d *Document) LineHeight() float64 {
	_, size := d.GetFontSize()
	return size * 1.25
}

// ResetStyle restores the base font, black text, border draw color and a
// white fill.
func (d *Document) ResetStyle() {
	d.SetFont(DefaultFontFamily, "", d.cfg.fontSize)
	d.SetTextColor(ColorBlack.R, ColorBlack.G, ColorBlack.B)
	d.SetDrawColor(ColorBorder.R, ColorBorder.G, ColorBorder.B)
	d.SetFillColor(255, 255, 255)
	d.SetLineWidth(0.5)
}

// EnsureSpace moves to a new page when a block of height h does not fit below
// the cursor. Blocks taller than an empty page are drawn where they are.
// It reports whether a page was added.
func (d *Document) EnsureSpace(h float64) bool {
	d.Start()
	_, pageH := d.GetPageSize()
	_, _, _, bottom := d.GetMargins()
	if d.GetY()+h <= pageH-bottom {
		return false
	}
	if d.GetY() <= d.bodyTop+0.01 {
		return false
	}
	d.AddPage()
	return true
}

// Fail records err against op on the document. The first recorded error wins
// and is returned by Finish.
func (d *Document) Fail(op string, err error) {
	if err == nil {
		return
	}
	d.SetError(asRenderError(op, err))
}

// Finish closes the document and writes the PDF to w.
func (d *Document) Finish(w io.Writer) error {
	d.Start()
	if d.Err() {
		return asRenderError("output", d.Error())
	}
	if err := d.Output(w); err != nil {
		return asRenderError("output", err)
	}
	return nil
}

// Bytes finishes the document and returns the PDF.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Finish(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func asRenderError(op string, err error) error {
	var re *RenderError
	if errors.As(err, &re) {
		return err
	}
	return NewRenderError(op, err)
}
