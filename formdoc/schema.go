// Package formdoc renders a filled-in form from a declarative definition.
//
// A FormSpec describes one form type: its banner (title, code, revision), the
// ordered sections of the body and the signature roles. Render walks the definition
// against a Report and assembles the shell, header, field grids, tables, text
// blocks and signatures. Every form in the catalog goes through the same
// assembly; adding a form means writing a definition, not code.
//
// Example YAML:
//
//	slug: bump-test
//	title: PRUEBA DE FUNCIONAMIENTO DE DETECTORES DE GASES
//	code: HSE-F-021
//	orientation: landscape
//	sections:
//	  - kind: fields
//	    columns: 3
//	    fields:
//	      - {key: date, label: Fecha}
//	      - {key: location, label: Locación}
//	  - kind: table
//	    key: detectors
//	    table:
//	      columns:
//	        - {key: serial, header: Serie, width: 20}
//	        - {key: result, header: Resultado, center: true,
//	           styles: {PASA: approved, FALLA: failed}}
//	signatures:
//	  - {key: inspector, label: Inspector}
package formdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	formpdf "github.com/lvillar/formpdf"
)

// SectionKind selects how a section is drawn.
type SectionKind string

// Section kinds.
const (
	KindFields SectionKind = "fields"
	KindTable  SectionKind = "table"
	KindText   SectionKind = "text"
)

// FormSpec is the declarative definition of one form type.
type FormSpec struct {
	Slug        string          `json:"slug" yaml:"slug"`
	Title       string          `json:"title" yaml:"title"`
	Code        string          `json:"code" yaml:"code"`
	Revision    string          `json:"revision,omitempty" yaml:"revision,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Orientation string          `json:"orientation,omitempty" yaml:"orientation,omitempty"` // portrait (default) or landscape
	FileNameKey string          `json:"fileNameKey,omitempty" yaml:"fileNameKey,omitempty"` // field used to name exported files
	Barcode     string          `json:"barcode,omitempty" yaml:"barcode,omitempty"`         // "", "qr" or "pdf417"
	Sections    []Section       `json:"sections" yaml:"sections"`
	Signatures  []SignatureRole `json:"signatures,omitempty" yaml:"signatures,omitempty"`
}

// Section is one block of the form body.
type Section struct {
	Kind  SectionKind `json:"kind" yaml:"kind"`
	Title string      `json:"title,omitempty" yaml:"title,omitempty"`

	// fields
	Columns int        `json:"columns,omitempty" yaml:"columns,omitempty"`
	Fields  []FieldDef `json:"fields,omitempty" yaml:"fields,omitempty"`

	// table: key into Report.Tables; text: key into Report.Fields
	Key   string    `json:"key,omitempty" yaml:"key,omitempty"`
	Table *TableDef `json:"table,omitempty" yaml:"table,omitempty"`
}

// FieldDef binds a report field to a labelled cell.
type FieldDef struct {
	Key      string  `json:"key" yaml:"key"`
	Label    string  `json:"label" yaml:"label"`
	Width    float64 `json:"width,omitempty" yaml:"width,omitempty"` // 100 spans the row
	Decimals *int    `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	Default  any     `json:"default,omitempty" yaml:"default,omitempty"`
}

// TableDef describes a table section.
type TableDef struct {
	Columns      []ColumnDef                 `json:"columns" yaml:"columns"`
	StatusKey    string                      `json:"statusKey,omitempty" yaml:"statusKey,omitempty"`
	StatusStyles map[string]formpdf.StyleTag `json:"statusStyles,omitempty" yaml:"statusStyles,omitempty"`
	MinRows      int                         `json:"minRows,omitempty" yaml:"minRows,omitempty"` // pad with blank rows for hand-filled copies
	Zebra        bool                        `json:"zebra,omitempty" yaml:"zebra,omitempty"`     // shade every other row
}

// ColumnDef binds a row key to a table column.
type ColumnDef struct {
	Key       string                      `json:"key" yaml:"key"`
	Header    string                      `json:"header" yaml:"header"`
	Width     float64                     `json:"width,omitempty" yaml:"width,omitempty"` // percent; 0 shares the rest
	Center    bool                        `json:"center,omitempty" yaml:"center,omitempty"`
	Decimals  *int                        `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	Styles    map[string]formpdf.StyleTag `json:"styles,omitempty" yaml:"styles,omitempty"` // cell value -> tag
	Highlight bool                        `json:"highlight,omitempty" yaml:"highlight,omitempty"` // takes the row's status style
}

// SignatureRole is one sign-off slot.
type SignatureRole struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// ParseSpec decodes a YAML or JSON form definition and validates it.
func ParseSpec(data []byte) (*FormSpec, error) {
	var spec FormSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("formdoc: parsing spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ParseReport decodes a JSON report.
func ParseReport(data []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("formdoc: parsing report: %w", err)
	}
	return r, nil
}

// Validate checks the definition is complete and internally consistent.
func (s *FormSpec) Validate() error {
	if s.Slug == "" || s.Title == "" || s.Code == "" {
		return fmt.Errorf("%w: slug, title and code are required", formpdf.ErrInvalidSpec)
	}
	if _, err := formpdf.ParseOrientation(s.Orientation); err != nil {
		return fmt.Errorf("%w: %s: %v", formpdf.ErrInvalidSpec, s.Slug, err)
	}
	switch s.Barcode {
	case "", "qr", "pdf417":
	default:
		return fmt.Errorf("%w: %s: barcode %q", formpdf.ErrInvalidSpec, s.Slug, s.Barcode)
	}

	for i, sec := range s.Sections {
		if err := sec.validate(); err != nil {
			return fmt.Errorf("%w: %s: section %d: %v", formpdf.ErrInvalidSpec, s.Slug, i, err)
		}
	}

	seen := make(map[string]bool, len(s.Signatures))
	for _, role := range s.Signatures {
		if role.Key == "" {
			return fmt.Errorf("%w: %s: signature role without key", formpdf.ErrInvalidSpec, s.Slug)
		}
		if seen[role.Key] {
			return fmt.Errorf("%w: %s: duplicate signature role %q", formpdf.ErrInvalidSpec, s.Slug, role.Key)
		}
		seen[role.Key] = true
	}
	return nil
}

func (sec Section) validate() error {
	switch sec.Kind {
	case KindFields:
		if len(sec.Fields) == 0 {
			return fmt.Errorf("fields section has no fields")
		}
		for _, f := range sec.Fields {
			if f.Key == "" {
				return fmt.Errorf("field %q has no key", f.Label)
			}
		}
	case KindTable:
		if sec.Key == "" {
			return fmt.Errorf("table section has no key")
		}
		if sec.Table == nil || len(sec.Table.Columns) == 0 {
			return fmt.Errorf("table %q has no columns", sec.Key)
		}
		total := 0.0
		for _, c := range sec.Table.Columns {
			if c.Key == "" {
				return fmt.Errorf("table %q: column %q has no key", sec.Key, c.Header)
			}
			if c.Width < 0 {
				return fmt.Errorf("table %q: column %q has negative width", sec.Key, c.Key)
			}
			total += c.Width
		}
		if total > 100+1e-6 {
			return fmt.Errorf("table %q: column widths add up to %s%%", sec.Key, trimFloat(total))
		}
	case KindText:
		if sec.Key == "" {
			return fmt.Errorf("text section has no key")
		}
	default:
		return fmt.Errorf("unknown section kind %q", sec.Kind)
	}
	return nil
}

// Tables lists the table sections in order.
func (s *FormSpec) Tables() []Section {
	var out []Section
	for _, sec := range s.Sections {
		if sec.Kind == KindTable {
			out = append(out, sec)
		}
	}
	return out
}

// FieldDefs lists every field definition, including text section keys, in
// form order.
func (s *FormSpec) FieldDefs() []FieldDef {
	var out []FieldDef
	for _, sec := range s.Sections {
		switch sec.Kind {
		case KindFields:
			out = append(out, sec.Fields...)
		case KindText:
			out = append(out, FieldDef{Key: sec.Key, Label: sec.Title, Width: 100})
		}
	}
	return out
}

func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.2f", f)
}
