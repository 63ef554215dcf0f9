// Package header draws the three-column banner at the top of every form page:
// brand mark on the left, the form title in the middle and the document code
// on the right.
package header

import (
	"fmt"
	"strings"

	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/barcode"

	formpdf "github.com/lvillar/formpdf"
)

const (
	// Height is the fixed banner height in points.
	Height = 54.0

	gap     = 6.0 // space between the banner and the page body
	padding = 4.0
	logoKey = "brand-logo"
)

// Symbology selects the traceability barcode type.
type Symbology string

// Supported symbologies.
const (
	SymbologyQR     Symbology = "qr"
	SymbologyPDF417 Symbology = "pdf417"
)

// Barcode is an optional machine-readable code printed in the right column.
type Barcode struct {
	Symbology Symbology
	Payload   string
}

// Block is the content of the banner.
type Block struct {
	Title    string
	Code     string
	Subtitle string // revision, date; one entry per line
	Barcode  *Barcode
}

// Install draws b at the top of every page of doc, including pages added by
// later blocks. Failures are recorded on the document.
func Install(doc *formpdf.Document, b Block) {
	doc.OnPageStart(func() {
		if err := Render(doc, b); err != nil {
			doc.Fail("header", err)
		}
	})
}

// Render draws the banner at the cursor and moves the cursor below it.
func Render(doc *formpdf.Document, b Block) error {
	doc.Start()
	if doc.Err() {
		return doc.Error()
	}

	left, _, _, _ := doc.GetMargins()
	y := doc.GetY()
	colW := doc.ContentWidth() / 3

	doc.ResetStyle()
	for i := 0; i < 3; i++ {
		doc.Rect(left+float64(i)*colW, y, colW, Height, "D")
	}

	if err := drawBrand(doc, left, y, colW); err != nil {
		return err
	}

	base := doc.BaseFont()
	doc.SetFont(base.Family, "B", base.Size+3)
	centeredLines(doc, b.Title, left+colW, y, colW)

	if err := drawCode(doc, b, left+2*colW, y, colW); err != nil {
		return err
	}

	doc.ResetStyle()
	doc.SetXY(left, y+Height+gap)
	return doc.Error()
}

func drawBrand(doc *formpdf.Document, x, y, w float64) error {
	brand := doc.Brand()
	if len(brand.Logo) > 0 {
		info, err := doc.RegisterImageData(logoKey, brand.Logo)
		if err != nil {
			return fmt.Errorf("header: brand logo: %w", err)
		}
		lw, lh := formpdf.FitBox(info.Width(), info.Height(), w-2*padding, Height-2*padding)
		doc.ImageOptions(logoKey, x+(w-lw)/2, y+(Height-lh)/2, lw, lh, false, gofpdf.ImageOptions{}, 0, "")
		return nil
	}
	if brand.Name == "" {
		return nil
	}
	base := doc.BaseFont()
	doc.SetFont(base.Family, "B", base.Size+4)
	centeredLines(doc, brand.Name, x, y, w)
	return nil
}

func drawCode(doc *formpdf.Document, b Block, x, y, w float64) error {
	textW := w
	if b.Barcode != nil {
		side := Height - 2*padding
		bw, bh := side, side
		if b.Barcode.Symbology == SymbologyPDF417 {
			bw, bh = w*0.45, side*0.6
		}
		if err := drawBarcode(doc, *b.Barcode, x+w-padding-bw, y+(Height-bh)/2, bw, bh); err != nil {
			return err
		}
		textW = w - bw - padding
	}

	base := doc.BaseFont()
	lineH := base.Size * 1.25

	var sub []string
	if s := strings.TrimSpace(b.Subtitle); s != "" {
		sub = strings.Split(s, "\n")
	}
	textY := y + (Height-float64(1+len(sub))*lineH)/2

	doc.SetXY(x+padding, textY)
	doc.SetFont(base.Family, "B", base.Size)
	doc.CellFormat(textW-padding, lineH, doc.Encode("CÓDIGO: "+b.Code), "", 2, "L", false, 0, "")

	doc.SetFont(base.Family, "", base.Size-1)
	for _, line := range sub {
		doc.SetX(x + padding)
		doc.CellFormat(textW-padding, lineH, doc.Encode(strings.TrimSpace(line)), "", 2, "L", false, 0, "")
	}
	return nil
}

func drawBarcode(doc *formpdf.Document, bc Barcode, x, y, w, h float64) error {
	var key string
	switch bc.Symbology {
	case SymbologyQR, "":
		key = barcode.RegisterQR(doc.Fpdf, bc.Payload, qr.M, qr.Unicode)
	case SymbologyPDF417:
		key = barcode.RegisterPdf417(doc.Fpdf, bc.Payload, 5, 2)
	default:
		return fmt.Errorf("header: %w: barcode symbology %q", formpdf.ErrInvalidParam, bc.Symbology)
	}
	if doc.Err() {
		return doc.Error()
	}
	barcode.Barcode(doc.Fpdf, key, x, y, w, h, false)
	return doc.Error()
}

// centeredLines wraps text in the current font and centers the block inside
// a w x Height box at (x, y).
func centeredLines(doc *formpdf.Document, text string, x, y, w float64) {
	if text == "" {
		return
	}
	_, size := doc.GetFontSize()
	lineH := size * 1.2
	lines := doc.SplitLines([]byte(doc.Encode(text)), w-2*padding)
	top := y + (Height-float64(len(lines))*lineH)/2
	for i, line := range lines {
		doc.SetXY(x+padding, top+float64(i)*lineH)
		doc.CellFormat(w-2*padding, lineH, string(line), "", 0, "C", false, 0, "")
	}
}
