package forms

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/formdoc"
)

var builtinSlugs = []string{
	"accumulator-test",
	"bump-test",
	"fluid-balance",
	"inertia-test",
	"job-safety-analysis",
	"performance-evaluation",
	"torque-register",
	"tower-pressure-log",
}

func newCatalog(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func TestEmbeddedDefinitionsLoad(t *testing.T) {
	c := newCatalog(t, WithLogger(zap.NewNop()))

	list := c.List()
	slugs := make([]string, len(list))
	for i, s := range list {
		slugs[i] = s.Slug
		assert.NotEmpty(t, s.Title, s.Slug)
		assert.NotEmpty(t, s.Code, s.Slug)
		assert.Contains(t, []string{"portrait", "landscape"}, s.Orientation)
	}
	assert.Equal(t, builtinSlugs, slugs)

	for _, slug := range builtinSlugs {
		spec, err := c.Get(slug)
		require.NoError(t, err)
		assert.NoError(t, spec.Validate(), slug)
	}

	towers, err := c.Get("tower-pressure-log")
	require.NoError(t, err)
	assert.True(t, towers.Tables()[0].Table.Zebra)
}

func TestGetUnknownForm(t *testing.T) {
	c := newCatalog(t)
	_, err := c.Get("crane-inspection")
	assert.ErrorIs(t, err, formpdf.ErrUnknownForm)

	_, err = c.NewReport("crane-inspection")
	assert.ErrorIs(t, err, formpdf.ErrUnknownForm)

	_, err = c.RenderBytes(formdoc.Report{Form: "crane-inspection"})
	assert.ErrorIs(t, err, formpdf.ErrUnknownForm)
}

func TestNewReport(t *testing.T) {
	c := newCatalog(t)
	r, err := c.NewReport("accumulator-test")
	require.NoError(t, err)

	assert.Equal(t, "accumulator-test", r.Form)
	assert.Len(t, r.ID, 36)
	assert.Equal(t, 1000, r.Field("precharge"))
	assert.Contains(t, r.Fields, "well")
	assert.Nil(t, r.Field("well"))
	assert.Empty(t, r.Tables["bottles"])
	assert.Contains(t, r.Tables, "closing_times")
	assert.Contains(t, r.Signatures, "supervisor")

	other, err := c.NewReport("accumulator-test")
	require.NoError(t, err)
	assert.NotEqual(t, r.ID, other.ID)
}

func TestPrepareDoesNotMutateInput(t *testing.T) {
	c := newCatalog(t)
	r := formdoc.Report{
		Form:   "performance-evaluation",
		Fields: map[string]any{"contractor": "ACME"},
		Tables: map[string][]formdoc.Row{
			"criteria": {{"criterion": "Seguridad", "score": 4}},
		},
	}

	_, prepared, err := c.Prepare(r)
	require.NoError(t, err)
	assert.Equal(t, 4.0, prepared.Field("average"))
	assert.NotContains(t, r.Fields, "average")
}

func TestRenderEveryForm(t *testing.T) {
	c := newCatalog(t)
	for _, slug := range builtinSlugs {
		t.Run(slug, func(t *testing.T) {
			r, err := c.NewReport(slug)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, c.Render(&buf, r))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
		})
	}
}

func TestCustomDerivation(t *testing.T) {
	called := false
	c := newCatalog(t, WithDerivation("job-safety-analysis", func(r *formdoc.Report) {
		called = true
		r.SetField("reviewed", true)
	}))

	_, prepared, err := c.Prepare(formdoc.Report{Form: "job-safety-analysis"})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, true, prepared.Field("reviewed"))
}

func TestWithDirOverridesAndExtends(t *testing.T) {
	dir := t.TempDir()
	override := "slug: bump-test\ntitle: PRUEBA LOCAL\ncode: LOC-001\n"
	extra := "slug: crane-inspection\ntitle: INSPECCIÓN DE GRÚA\ncode: MNT-F-010\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bump.yaml"), []byte(override), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crane.yml"), []byte(extra), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	c := newCatalog(t, WithDir(dir))

	spec, err := c.Get("bump-test")
	require.NoError(t, err)
	assert.Equal(t, "PRUEBA LOCAL", spec.Title)

	_, err = c.Get("crane-inspection")
	assert.NoError(t, err)
	assert.Len(t, c.List(), len(builtinSlugs)+1)
}

func TestWithDirInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("slug: x\n"), 0o644))

	_, err := New(WithDir(dir))
	assert.ErrorIs(t, err, formpdf.ErrInvalidSpec)
}

func TestWithDirMissing(t *testing.T) {
	_, err := New(WithDir(filepath.Join(t.TempDir(), "absent")))
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	c := newCatalog(t)
	spec, err := c.Get("performance-evaluation")
	require.NoError(t, err)

	r := formdoc.Report{ID: "abc-123", Fields: map[string]any{"period": "2024 / Q1"}}
	assert.Equal(t, "performance-evaluation_2024-Q1.pdf", FileName(spec, r, "pdf"))

	r.Fields["period"] = "  "
	assert.Equal(t, "performance-evaluation_abc-123.xlsx", FileName(spec, r, ".xlsx"))

	assert.Equal(t, "performance-evaluation", FileName(spec, formdoc.Report{}, ""))
}
