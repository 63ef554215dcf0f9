package fieldgrid_test

import (
	"bytes"
	"testing"
	"time"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/fieldgrid"
)

func labels(rows [][]fieldgrid.Field) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		for _, f := range r {
			out[i] = append(out[i], f.Label)
		}
	}
	return out
}

func TestPartition(t *testing.T) {
	fields := []fieldgrid.Field{
		{Label: "a"}, {Label: "b"}, {Label: "c"},
		{Label: "obj", Width: fieldgrid.FullWidth},
		{Label: "d"}, {Label: "e"}, {Label: "f"}, {Label: "g"},
	}

	got := labels(fieldgrid.Partition(fields, 2))
	want := [][]string{{"a", "b"}, {"c"}, {"obj"}, {"d", "e"}, {"f", "g"}}
	if len(got) != len(want) {
		t.Fatalf("got %d rows %v, want %v", len(got), got, want)
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("row %d = %v, want %v", i, got[i], want[i])
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestPartitionEdgeCases(t *testing.T) {
	if rows := fieldgrid.Partition(nil, 3); len(rows) != 0 {
		t.Errorf("empty input produced %d rows", len(rows))
	}
	rows := fieldgrid.Partition([]fieldgrid.Field{{Label: "a"}, {Label: "b"}}, 0)
	if len(rows) != 2 {
		t.Errorf("columns=0 should behave as 1, got %d rows", len(rows))
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"texto", "texto"},
		{3000.0, "3000"},
		{12.75, "12.75"},
		{42, "42"},
		{true, "SÍ"},
		{false, "NO"},
		{time.Duration(0), "0s"},
	}
	for _, c := range cases {
		if got := fieldgrid.Format(c.in); got != c.want {
			t.Errorf("Format(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRenderMissingValueIsBlank(t *testing.T) {
	doc := formpdf.NewDocument(formpdf.WithCompression(false))
	fields := []fieldgrid.Field{
		fieldgrid.Of("Pozo", "X-12"),
		fieldgrid.Of("Supervisor", nil),
	}
	if err := fieldgrid.Render(doc, fields, 2); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	for _, s := range []string{"(Pozo:)", "(X-12)", "(Supervisor:)"} {
		if !bytes.Contains(out, []byte(s)) {
			t.Errorf("%s missing from page content", s)
		}
	}
	for _, s := range []string{"undefined", "<nil>"} {
		if bytes.Contains(out, []byte(s)) {
			t.Errorf("page content contains %q", s)
		}
	}
}

func TestRenderLongLabelKeepsValue(t *testing.T) {
	doc := formpdf.NewDocument(formpdf.WithCompression(false))
	label := "Presion maxima de operacion permitida del sistema en psi"
	fields := []fieldgrid.Field{
		fieldgrid.Of("Pozo", "X-12"),
		fieldgrid.Of(label, 3000),
		fieldgrid.Of("Turno", "Noche"),
		fieldgrid.Of("Equipo", "RIG-07"),
	}
	doc.Start()
	y := doc.GetY()
	if err := fieldgrid.Render(doc, fields, 4); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rows := (doc.GetY() - y) / doc.LineHeight(); rows < 2 {
		t.Errorf("row is %.1f lines tall, expected the label and value stacked", rows)
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	for _, s := range []string{"(X-12)", "(3000)", "(Noche)", "(RIG-07)"} {
		if !bytes.Contains(out, []byte(s)) {
			t.Errorf("%s missing from page content", s)
		}
	}
	if bytes.Contains(out, []byte("("+label+":)")) {
		t.Error("label drawn on one line past its cell")
	}
}

func TestRenderEmptyDrawsNothing(t *testing.T) {
	doc := formpdf.NewDocument()
	if err := fieldgrid.Render(doc, nil, 3); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.PageNo() != 0 {
		t.Error("empty field list should not start a page")
	}
}

func TestRenderAdvancesCursor(t *testing.T) {
	doc := formpdf.NewDocument()
	doc.Start()
	y := doc.GetY()

	fields := []fieldgrid.Field{
		{Label: "Fecha", Value: "2024-05-01"},
		{Label: "Turno", Value: "Día"},
		{Label: "Objetivo", Value: "Verificar el tiempo de cierre de la unidad acumuladora con la bomba apagada y registrar la presión final de cada botella.", Width: fieldgrid.FullWidth},
	}
	if err := fieldgrid.Render(doc, fields, 2); err != nil {
		t.Fatalf("Render: %v", err)
	}

	lineH := doc.LineHeight()
	if doc.GetY() < y+2*lineH {
		t.Errorf("cursor advanced %.2f, expected at least two rows", doc.GetY()-y)
	}
}
