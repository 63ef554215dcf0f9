package signature_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"golang.org/x/image/bmp"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/signature"
)

func strokeImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, strokeImage(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func dataURI(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

func TestLines(t *testing.T) {
	entries := make([]signature.Entry, 7)
	lines := signature.Lines(entries)
	if len(lines) != 3 || len(lines[0]) != 3 || len(lines[2]) != 1 {
		t.Errorf("7 entries split into %d lines", len(lines))
	}
	if signature.Lines(nil) != nil {
		t.Error("no entries should give no lines")
	}
}

func TestBlankSlotDrawsRule(t *testing.T) {
	doc := formpdf.NewDocument(formpdf.WithCompression(false))
	slots, err := signature.Draw(doc, []signature.Entry{{Label: "Supervisor", Name: "J. Pérez"}})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("got %d slots", len(slots))
	}
	s := slots[0]
	if s.RuleW != signature.BoxWidth {
		t.Errorf("rule width = %.2f, want %.2f", s.RuleW, signature.BoxWidth)
	}
	if s.ImageW != 0 || s.ImageH != 0 {
		t.Error("blank slot should not place an image")
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Contains(out, []byte("(SUPERVISOR)")) {
		t.Error("label should be drawn upper-case")
	}
}

func TestImageFitsInBox(t *testing.T) {
	cases := []struct {
		name string
		w, h int
	}{
		{"wide capture", 900, 200},
		{"tall capture", 100, 400},
		{"small capture", 60, 20},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := formpdf.NewDocument()
			slots, err := signature.Draw(doc, []signature.Entry{
				{Label: "Operador", Data: dataURI(pngBytes(t, c.w, c.h))},
			})
			if err != nil {
				t.Fatalf("Draw: %v", err)
			}
			s := slots[0]
			if s.ImageW <= 0 || s.ImageH <= 0 {
				t.Fatal("image not placed")
			}
			if s.ImageW > signature.BoxWidth+1e-9 || s.ImageH > signature.BoxHeight+1e-9 {
				t.Errorf("image %.2f x %.2f exceeds box", s.ImageW, s.ImageH)
			}
			if s.ImageW > float64(c.w)+1e-9 {
				t.Errorf("image enlarged to %.2f from %d", s.ImageW, c.w)
			}
			if ratio := s.ImageW / s.ImageH; math.Abs(ratio-float64(c.w)/float64(c.h)) > 0.01 {
				t.Errorf("aspect ratio changed to %.3f", ratio)
			}
		})
	}
}

func TestMalformedDataFails(t *testing.T) {
	for name, data := range map[string]string{
		"not base64":     "%%%",
		"not an image":   base64.StdEncoding.EncodeToString([]byte("hello")),
		"plain data uri": "data:image/png,abc",
	} {
		t.Run(name, func(t *testing.T) {
			doc := formpdf.NewDocument()
			err := signature.Render(doc, []signature.Entry{{Label: "Testigo", Data: data}})
			if !errors.Is(err, formpdf.ErrSignatureImage) {
				t.Fatalf("expected ErrSignatureImage, got %v", err)
			}
			var re *formpdf.RenderError
			if !errors.As(err, &re) || re.Op != "signature" {
				t.Errorf("expected signature RenderError, got %v", err)
			}
			if _, ferr := doc.Bytes(); !errors.Is(ferr, formpdf.ErrSignatureImage) {
				t.Errorf("document should carry the failure, got %v", ferr)
			}
		})
	}
}

func TestZeroEntriesDrawNothing(t *testing.T) {
	doc := formpdf.NewDocument()
	if err := signature.Render(doc, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.PageNo() != 0 {
		t.Error("no entries should not start a page")
	}
}

func TestNormalize(t *testing.T) {
	small := pngBytes(t, 300, 100)
	got, err := signature.Normalize(small)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !bytes.Equal(got, small) {
		t.Error("small PNG should pass through unchanged")
	}

	big, err := signature.Normalize(pngBytes(t, 2400, 600))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(big))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if cfg.Width != signature.MaxDimension || cfg.Height != 300 {
		t.Errorf("downscaled to %dx%d", cfg.Width, cfg.Height)
	}

	var buf bytes.Buffer
	opaque := image.NewRGBA(image.Rect(0, 0, 80, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 80; x++ {
			opaque.Set(x, y, color.White)
		}
	}
	if err := bmp.Encode(&buf, opaque); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	conv, err := signature.Normalize(buf.Bytes())
	if err != nil {
		t.Fatalf("Normalize bmp: %v", err)
	}
	if typ, err := formpdf.DetectImageType(conv); err != nil || typ != "PNG" {
		t.Errorf("bmp converted to %q, %v", typ, err)
	}
}

func TestDecodeAcceptsBareBase64(t *testing.T) {
	raw := pngBytes(t, 10, 10)
	got, err := signature.Decode(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("decoded bytes differ")
	}
}
