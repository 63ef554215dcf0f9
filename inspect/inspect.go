// Package inspect reads back rendered PDFs: page count and page sizes through
// pdfcpu, plain text per page through ledongthuc/pdf.
package inspect

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	formpdf "github.com/lvillar/formpdf"
)

func init() {
	// Keep pdfcpu from creating its configuration directory under $HOME.
	model.ConfigPath = "disable"
}

// Page describes one page of a document. Sizes are in points.
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text,omitempty"`
}

// Landscape reports whether the page is wider than tall.
func (p Page) Landscape() bool {
	return p.Width > p.Height
}

// Info is the result of inspecting a document.
type Info struct {
	PageCount int    `json:"pageCount"`
	Pages     []Page `json:"pages"`
}

// Text joins the text of every page, one page per paragraph.
func (i *Info) Text() string {
	parts := make([]string, len(i.Pages))
	for n, p := range i.Pages {
		parts[n] = p.Text
	}
	return strings.Join(parts, "\n\n")
}

func readContext(data []byte) (*model.Context, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("inspect: %w: empty document", formpdf.ErrInvalidParam)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("inspect: reading document: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("inspect: counting pages: %w", err)
	}
	return ctx, nil
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	ctx, err := readContext(data)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// Pages returns the size of every page in data.
func Pages(data []byte) ([]Page, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("inspect: page sizes: %w", err)
	}
	pages := make([]Page, len(dims))
	for i, d := range dims {
		pages[i] = Page{Number: i + 1, Width: d.Width, Height: d.Height}
	}
	return pages, nil
}

// Text extracts the plain text of each page in data.
func Text(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("inspect: opening document: %w", err)
	}

	out := make([]string, r.NumPage())
	for i := range out {
		p := r.Page(i + 1)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("inspect: page %d: %w", i+1, err)
		}
		out[i] = strings.TrimSpace(text)
	}
	return out, nil
}

// Inspect returns page sizes and text for data.
func Inspect(data []byte) (*Info, error) {
	pages, err := Pages(data)
	if err != nil {
		return nil, err
	}
	texts, err := Text(data)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if i < len(texts) {
			pages[i].Text = texts[i]
		}
	}
	return &Info{PageCount: len(pages), Pages: pages}, nil
}
