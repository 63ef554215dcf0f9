// Package signature draws the sign-off block at the end of a form: up to
// three slots per line, each with a captured signature image or a blank rule,
// the role label and the signer's name.
package signature

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	formpdf "github.com/lvillar/formpdf"
)

const (
	// PerLine is the number of slots drawn side by side.
	PerLine = 3
	// BoxWidth and BoxHeight bound a signature image; BoxWidth is also the
	// length of the rule.
	BoxWidth  = 150.0
	BoxHeight = 45.0

	topGap = 12.0
	ruleW  = 0.6
)

// Entry is one signature slot.
type Entry struct {
	Label string // role, e.g. "Supervisor"
	Data  string // captured image as a data: URI or base64; empty for a blank rule
	Name  string
}

// Slot is the geometry of a drawn entry, in page coordinates.
type Slot struct {
	RuleX, RuleY, RuleW float64
	ImageW, ImageH      float64 // zero when drawn as a blank rule
}

// Lines splits entries into lines of at most PerLine slots.
func Lines(entries []Entry) [][]Entry {
	var out [][]Entry
	for len(entries) > 0 {
		n := min(PerLine, len(entries))
		out = append(out, entries[:n])
		entries = entries[n:]
	}
	return out
}

// Render draws entries at the cursor. Zero entries draw nothing. Image data
// that cannot be decoded fails the render with ErrSignatureImage; no
// placeholder is drawn in its place.
func Render(doc *formpdf.Document, entries []Entry) error {
	_, err := Draw(doc, entries)
	return err
}

// Draw is Render that also reports where each slot was placed.
func Draw(doc *formpdf.Document, entries []Entry) ([]Slot, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	doc.Start()
	if doc.Err() {
		return nil, doc.Error()
	}

	images := make([][]byte, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Data) == "" {
			continue
		}
		img, err := load(e.Data)
		if err != nil {
			err = formpdf.NewRenderError("signature", fmt.Errorf("%s: %w", e.Label, err))
			doc.Fail("signature", err)
			return nil, err
		}
		images[i] = img
	}

	left, _, _, _ := doc.GetMargins()
	base := doc.BaseFont()
	lineH := base.Size * 1.25
	cols := min(PerLine, len(entries))
	colW := doc.ContentWidth() / float64(cols)
	boxW := min(BoxWidth, colW-8)
	blockH := topGap + BoxHeight + 2*lineH + 4

	var slots []Slot
	idx := 0
	for _, line := range Lines(entries) {
		doc.EnsureSpace(blockH)
		y := doc.GetY() + topGap
		ruleY := y + BoxHeight

		for i, e := range line {
			x := left + float64(i)*colW + (colW-boxW)/2
			slot := Slot{RuleX: x, RuleY: ruleY, RuleW: boxW}

			if data := images[idx]; data != nil {
				w, h, err := placeImage(doc, data, x, y, boxW)
				if err != nil {
					err = formpdf.NewRenderError("signature", fmt.Errorf("%s: %w", e.Label, err))
					doc.Fail("signature", err)
					return nil, err
				}
				slot.ImageW, slot.ImageH = w, h
			}

			doc.SetDrawColor(formpdf.ColorBlack.R, formpdf.ColorBlack.G, formpdf.ColorBlack.B)
			doc.SetLineWidth(ruleW)
			doc.Line(x, ruleY, x+boxW, ruleY)

			doc.SetTextColor(formpdf.ColorBlack.R, formpdf.ColorBlack.G, formpdf.ColorBlack.B)
			doc.SetFont(base.Family, "B", base.Size)
			doc.SetXY(x, ruleY+2)
			doc.CellFormat(boxW, lineH, doc.Encode(strings.ToUpper(e.Label)), "", 0, "C", false, 0, "")

			if e.Name != "" {
				doc.SetFont(base.Family, "", base.Size-1)
				doc.SetTextColor(formpdf.ColorMuted.R, formpdf.ColorMuted.G, formpdf.ColorMuted.B)
				doc.SetXY(x, ruleY+2+lineH)
				doc.CellFormat(boxW, lineH, doc.Encode(e.Name), "", 0, "C", false, 0, "")
			}

			slots = append(slots, slot)
			idx++
		}
		doc.SetXY(left, y-topGap+blockH)
	}

	doc.ResetStyle()
	if doc.Err() {
		return nil, doc.Error()
	}
	return slots, nil
}

func load(data string) ([]byte, error) {
	raw, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

// placeImage fits the image into the box above the rule, centered
// horizontally and resting on the rule.
func placeImage(doc *formpdf.Document, data []byte, x, y, boxW float64) (w, h float64, err error) {
	h64 := fnv.New64a()
	h64.Write(data)
	name := fmt.Sprintf("signature-%x", h64.Sum64())

	info, err := doc.RegisterImageData(name, data)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", formpdf.ErrSignatureImage, err)
	}
	w, h = formpdf.FitBox(info.Width(), info.Height(), boxW, BoxHeight)
	doc.ImageOptions(name, x+(boxW-w)/2, y+BoxHeight-h, w, h, false, gofpdf.ImageOptions{}, 0, "")
	return w, h, nil
}
