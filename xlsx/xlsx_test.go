package xlsx

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/formdoc"
	"github.com/lvillar/formpdf/forms"
)

func bumpTest(t *testing.T) (*formdoc.FormSpec, formdoc.Report) {
	t.Helper()
	c, err := forms.New()
	require.NoError(t, err)
	spec, err := c.Get("bump-test")
	require.NoError(t, err)

	r := formdoc.Report{
		Form: "bump-test",
		ID:   "7f3c2a10-0000-4000-8000-000000000000",
		Fields: map[string]any{
			"date":  "2024-05-01",
			"notes": "Sin novedad.",
		},
		Tables: map[string][]formdoc.Row{
			"detectors": {
				{"brand": "MSA", "serial": "A-1", "reading": 50.04, "alarm": true, "result": "PASA"},
				{"brand": "MSA", "serial": "A-2", "reading": "31,5", "alarm": false, "result": "FALLA"},
			},
		},
		Signatures: map[string]formdoc.Signature{"inspector": {Name: "J. Pérez"}},
	}
	return spec, r
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func findRow(rows [][]string, first string) int {
	for i, row := range rows {
		if len(row) > 0 && row[0] == first {
			return i
		}
	}
	return -1
}

func TestExportLayout(t *testing.T) {
	spec, r := bumpTest(t)
	data, err := Bytes(spec, r)
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{"HSE-F-021"}, f.GetSheetList())

	rows, err := f.GetRows("HSE-F-021")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, spec.Title, rows[0][0])

	date := findRow(rows, "Fecha")
	require.NotEqual(t, -1, date)
	assert.Equal(t, "2024-05-01", rows[date][1])

	gas := findRow(rows, "Gas patrón")
	require.NotEqual(t, -1, gas)
	assert.Equal(t, "CH4 50% LEL", rows[gas][1], "default applies to a missing field")

	hdr := findRow(rows, "MARCA")
	require.NotEqual(t, -1, hdr)
	assert.Equal(t, []string{"MARCA", "SERIE", "LECTURA", "ALARMA", "RESULTADO", "OBSERVACIONES"}, rows[hdr])
	assert.Equal(t, "A-1", rows[hdr+1][1])
	assert.Equal(t, "50", rows[hdr+1][2])
	assert.Equal(t, "SÍ", rows[hdr+1][3])
	assert.Equal(t, "31.5", rows[hdr+2][2])

	sig := findRow(rows, "Inspector")
	require.NotEqual(t, -1, sig)
	assert.NotEqual(t, -1, findRow(rows[sig+1:], "Inspector"), "signature row follows the field row")
}

func TestExportStatusFills(t *testing.T) {
	spec, r := bumpTest(t)
	data, err := Bytes(spec, r)
	require.NoError(t, err)
	f := open(t, data)

	rows, err := f.GetRows("HSE-F-021")
	require.NoError(t, err)
	hdr := findRow(rows, "MARCA")
	require.NotEqual(t, -1, hdr)

	// Spreadsheet rows are 1-based; column E holds RESULTADO, B holds SERIE.
	cell := func(col string, row int) int {
		id, err := f.GetCellStyle("HSE-F-021", col+strconv.Itoa(row))
		require.NoError(t, err)
		return id
	}
	passed, failed, plain := cell("E", hdr+2), cell("E", hdr+3), cell("B", hdr+2)
	assert.NotEqual(t, passed, failed)
	assert.NotEqual(t, plain, passed)
	assert.NotEqual(t, plain, failed)
}

func TestExportEmptyReport(t *testing.T) {
	spec, _ := bumpTest(t)
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, spec, formdoc.Report{Form: "bump-test"}))

	f := open(t, buf.Bytes())
	rows, err := f.GetRows("HSE-F-021")
	require.NoError(t, err)
	for _, row := range rows {
		for _, v := range row {
			assert.NotContains(t, v, "<nil>")
		}
	}
}

func TestExportNilSpec(t *testing.T) {
	_, err := Bytes(nil, formdoc.Report{})
	assert.ErrorIs(t, err, formpdf.ErrInvalidSpec)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "HSE-F-021", SheetName("HSE-F-021"))
	assert.Equal(t, "MNT-F-003-A", SheetName("MNT/F:003?A"))
	assert.Equal(t, "Formulario", SheetName("  "))
	assert.Len(t, []rune(SheetName("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")), 31)
}

func TestValue(t *testing.T) {
	two := 2
	assert.Equal(t, "", value(nil, nil))
	assert.Equal(t, "SÍ", value(true, nil))
	assert.Equal(t, 3.14, value(3.14159, &two))
	assert.Equal(t, "7,25", value("7,25", nil))
	assert.Equal(t, 7.25, value("7,25", &two))
	assert.Equal(t, float64(12), value(12, nil))
	assert.Equal(t, "Pozo X", value("Pozo X", nil))
}
