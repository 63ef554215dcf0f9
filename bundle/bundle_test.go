package bundle

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/inspect"
)

func render(t *testing.T, pages int, o formpdf.Orientation) []byte {
	t.Helper()
	return renderText(t, pages, o, "Formulario")
}

func renderText(t *testing.T, pages int, o formpdf.Orientation, text string) []byte {
	t.Helper()
	doc := formpdf.NewDocument(formpdf.WithOrientation(o))
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.CellFormat(0, 12, text, "", 1, "L", false, 0, "")
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return data
}

func TestMergeKeepsPagesAndSizes(t *testing.T) {
	out, err := Bytes(
		Part{Name: "a", Data: render(t, 2, formpdf.OrientationPortrait)},
		Part{Name: "b", Data: render(t, 1, formpdf.OrientationLandscape)},
	)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output does not start with %PDF header")
	}

	pages, err := inspect.Pages(out)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[0].Landscape() || pages[1].Landscape() {
		t.Error("portrait pages changed orientation")
	}
	if !pages[2].Landscape() {
		t.Error("landscape page changed orientation")
	}
}

func TestMergeKeepsEveryDocument(t *testing.T) {
	out, err := Bytes(
		Part{Name: "alpha", Data: renderText(t, 1, formpdf.OrientationPortrait, "ALPHA")},
		Part{Name: "bravo", Data: renderText(t, 1, formpdf.OrientationPortrait, "BRAVO")},
		Part{Name: "charlie", Data: renderText(t, 1, formpdf.OrientationLandscape, "CHARLIE")},
	)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	texts, err := inspect.Text(out)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := []string{"ALPHA", "BRAVO", "CHARLIE"}
	if len(texts) != len(want) {
		t.Fatalf("got %d pages, want %d", len(texts), len(want))
	}
	for i, w := range want {
		if !strings.Contains(texts[i], w) {
			t.Errorf("page %d: got %q, want it to contain %q", i+1, texts[i], w)
		}
		for j, other := range want {
			if j != i && strings.Contains(texts[i], other) {
				t.Errorf("page %d shows %q from another document", i+1, other)
			}
		}
	}
}

func TestMergeSinglePart(t *testing.T) {
	in := render(t, 2, formpdf.OrientationPortrait)
	out, err := Bytes(Part{Data: in})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Error("a single document should pass through unchanged")
	}
}

func TestMergeNoParts(t *testing.T) {
	var buf bytes.Buffer
	if err := Merge(&buf); !errors.Is(err, formpdf.ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam, got %v", err)
	}
}

func TestMergeInvalidPart(t *testing.T) {
	_, err := Bytes(
		Part{Name: "good", Data: render(t, 1, formpdf.OrientationPortrait)},
		Part{Name: "broken", Data: []byte("%PDF-1.4 garbage")},
	)
	if err == nil {
		t.Fatal("expected an error for a broken part")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should name the broken part: %v", err)
	}
}
