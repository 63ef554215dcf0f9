// Package forms is the catalog of printable forms. Definitions are embedded
// YAML files, one per form type, optionally extended or overridden from a
// directory at runtime. Each form may register a derivation that fills
// computed values (volumes, margins, averages) into a copy of the report
// before it is rendered.
package forms

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/formdoc"
)

//go:embed defs/*.yaml
var embedded embed.FS

// DeriveFunc fills computed values into r. It must tolerate blank inputs.
type DeriveFunc func(r *formdoc.Report)

// Summary is the listing entry of a form.
type Summary struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	Orientation string `json:"orientation"`
	Description string `json:"description,omitempty"`
}

// Catalog holds the loaded form definitions.
type Catalog struct {
	specs  map[string]*formdoc.FormSpec
	derive map[string]DeriveFunc
	log    *zap.Logger
}

// Option configures a Catalog.
type Option func(*catalogConfig)

type catalogConfig struct {
	dir    string
	log    *zap.Logger
	derive map[string]DeriveFunc
}

// WithDir loads additional definitions from dir. A definition whose slug
// matches an embedded one replaces it.
func WithDir(dir string) Option {
	return func(c *catalogConfig) {
		c.dir = dir
	}
}

// WithLogger sets the logger used while loading.
func WithLogger(l *zap.Logger) Option {
	return func(c *catalogConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDerivation registers fn for slug, replacing any built-in one.
func WithDerivation(slug string, fn DeriveFunc) Option {
	return func(c *catalogConfig) {
		c.derive[slug] = fn
	}
}

// New loads the embedded definitions plus any configured directory.
func New(opts ...Option) (*Catalog, error) {
	cfg := catalogConfig{
		log:    zap.NewNop(),
		derive: make(map[string]DeriveFunc),
	}
	for slug, fn := range builtinDerivations {
		cfg.derive[slug] = fn
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Catalog{
		specs:  make(map[string]*formdoc.FormSpec),
		derive: cfg.derive,
		log:    cfg.log,
	}
	if err := c.load(embedded, "defs"); err != nil {
		return nil, err
	}
	if cfg.dir != "" {
		if err := c.load(os.DirFS(cfg.dir), "."); err != nil {
			return nil, err
		}
	}
	c.log.Info("form catalog loaded", zap.Int("forms", len(c.specs)))
	return c, nil
}

func (c *Catalog) load(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("forms: reading %s: %w", dir, err)
	}
	for _, e := range entries {
		ext := strings.ToLower(path.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("forms: reading %s: %w", e.Name(), err)
		}
		spec, err := formdoc.ParseSpec(data)
		if err != nil {
			return fmt.Errorf("forms: %s: %w", e.Name(), err)
		}
		if _, exists := c.specs[spec.Slug]; exists {
			c.log.Warn("form definition overridden", zap.String("slug", spec.Slug), zap.String("file", e.Name()))
		}
		c.specs[spec.Slug] = spec
		c.log.Debug("form definition loaded", zap.String("slug", spec.Slug), zap.String("code", spec.Code))
	}
	return nil
}

// Get returns the definition for slug.
func (c *Catalog) Get(slug string) (*formdoc.FormSpec, error) {
	spec, ok := c.specs[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", formpdf.ErrUnknownForm, slug)
	}
	return spec, nil
}

// List returns every form sorted by slug.
func (c *Catalog) List() []Summary {
	out := make([]Summary, 0, len(c.specs))
	for _, s := range c.specs {
		orientation := s.Orientation
		if orientation == "" {
			orientation = string(formpdf.OrientationPortrait)
		}
		out = append(out, Summary{
			Slug:        s.Slug,
			Title:       s.Title,
			Code:        s.Code,
			Orientation: orientation,
			Description: s.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// NewReport returns a blank report for slug with a fresh ID, the
// definition's field defaults and an empty list for every table.
func (c *Catalog) NewReport(slug string) (formdoc.Report, error) {
	spec, err := c.Get(slug)
	if err != nil {
		return formdoc.Report{}, err
	}
	r := formdoc.Report{
		Form:       slug,
		ID:         uuid.NewString(),
		Fields:     make(map[string]any),
		Tables:     make(map[string][]formdoc.Row),
		Signatures: make(map[string]formdoc.Signature),
	}
	for _, def := range spec.FieldDefs() {
		r.Fields[def.Key] = def.Default
	}
	for _, sec := range spec.Tables() {
		r.Tables[sec.Key] = []formdoc.Row{}
	}
	for _, role := range spec.Signatures {
		r.Signatures[role.Key] = formdoc.Signature{}
	}
	return r, nil
}

// Prepare looks up the report's form and returns it with a copy of the report
// carrying the derived values. Fields the report leaves blank take their
// definition default before deriving. The input report is not modified.
func (c *Catalog) Prepare(r formdoc.Report) (*formdoc.FormSpec, formdoc.Report, error) {
	spec, err := c.Get(r.Form)
	if err != nil {
		return nil, formdoc.Report{}, err
	}
	out := r.Clone()
	for _, def := range spec.FieldDefs() {
		if def.Default != nil && blank(out.Field(def.Key)) {
			out.SetField(def.Key, def.Default)
		}
	}
	if fn := c.derive[r.Form]; fn != nil {
		fn(&out)
	}
	return spec, out, nil
}

// Render prepares r and writes its PDF to w.
func (c *Catalog) Render(w io.Writer, r formdoc.Report, opts ...formpdf.Option) error {
	spec, prepared, err := c.Prepare(r)
	if err != nil {
		return err
	}
	return formdoc.Render(w, spec, prepared, opts...)
}

// RenderBytes prepares r and returns its PDF.
func (c *Catalog) RenderBytes(r formdoc.Report, opts ...formpdf.Option) ([]byte, error) {
	spec, prepared, err := c.Prepare(r)
	if err != nil {
		return nil, err
	}
	return formdoc.RenderBytes(spec, prepared, opts...)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName names an exported file "<slug>_<key>" plus ext, where key is the
// form's file-name field, falling back to the report ID.
func FileName(spec *formdoc.FormSpec, r formdoc.Report, ext string) string {
	key := ""
	if spec.FileNameKey != "" {
		key = r.Text(spec.FileNameKey)
	}
	if strings.TrimSpace(key) == "" {
		key = r.ID
	}
	key = strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(key), "-"), "-")

	name := spec.Slug
	if key != "" {
		name += "_" + key
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return name + ext
}
