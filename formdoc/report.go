package formdoc

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/lvillar/formpdf/fieldgrid"
)

// Report is the data captured for one filled-in form. Values are plain JSON
// scalars; anything missing renders blank.
type Report struct {
	Form       string               `json:"form"`
	ID         string               `json:"id,omitempty"`
	Fields     map[string]any       `json:"fields,omitempty"`
	Tables     map[string][]Row     `json:"tables,omitempty"`
	Signatures map[string]Signature `json:"signatures,omitempty"`
}

// Row is one table row keyed by column key.
type Row map[string]any

// Signature is a captured sign-off.
type Signature struct {
	Data string `json:"data,omitempty"` // data: URI or base64 image
	Name string `json:"name,omitempty"`
}

// Clone returns a deep copy of the report's maps and rows. Scalar values are
// shared.
func (r Report) Clone() Report {
	out := Report{Form: r.Form, ID: r.ID}
	if r.Fields != nil {
		out.Fields = make(map[string]any, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	if r.Tables != nil {
		out.Tables = make(map[string][]Row, len(r.Tables))
		for k, rows := range r.Tables {
			cp := make([]Row, len(rows))
			for i, row := range rows {
				cp[i] = row.Clone()
			}
			out.Tables[k] = cp
		}
	}
	if r.Signatures != nil {
		out.Signatures = make(map[string]Signature, len(r.Signatures))
		for k, v := range r.Signatures {
			out.Signatures[k] = v
		}
	}
	return out
}

// Field returns the raw value of a field, or nil.
func (r Report) Field(key string) any {
	return r.Fields[key]
}

// SetField sets a field, allocating the map if needed.
func (r *Report) SetField(key string, v any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[key] = v
}

// Text returns a field formatted for display.
func (r Report) Text(key string) string {
	return fieldgrid.Format(r.Fields[key])
}

// Clone copies the row.
func (row Row) Clone() Row {
	if row == nil {
		return nil
	}
	cp := make(Row, len(row))
	for k, v := range row {
		cp[k] = v
	}
	return cp
}

// Float reads a numeric value. Numeric strings may use "." or "," as the
// decimal separator and the other one for thousands ("1.500,5", "1,000.5").
// When both appear the last one is the decimal separator. A lone "," followed
// by exactly three digits groups thousands ("1,000"); otherwise it is decimal
// ("7,25"). A lone "." is always decimal. Blank and non-numeric values report
// false.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		s, ok := normalizeNumber(strings.TrimSpace(x))
		if !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// normalizeNumber rewrites a localized number in Go syntax: thousands
// separators dropped, decimal separator turned into ".".
func normalizeNumber(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], s[1:]
	}

	var group, dec byte
	lastDot, lastComma := strings.LastIndexByte(s, '.'), strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			group, dec = ',', '.'
		} else {
			group, dec = '.', ','
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || groupsThousands(s, lastComma) {
			group = ','
		} else {
			dec = ','
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			group = '.'
		} else {
			dec = '.'
		}
	}

	whole, frac := s, ""
	if dec != 0 {
		i := strings.LastIndexByte(s, dec)
		whole, frac = s[:i], s[i+1:]
	}
	if group != 0 && strings.IndexByte(whole, group) >= 0 {
		parts := strings.Split(whole, string(group))
		if len(parts[0]) == 0 || len(parts[0]) > 3 {
			return "", false
		}
		for _, p := range parts[1:] {
			if len(p) != 3 {
				return "", false
			}
		}
		whole = strings.Join(parts, "")
	}

	out := sign + whole
	if dec != 0 {
		out += "." + frac
	}
	return out, true
}

// groupsThousands reports whether the only separator, at i, splits a short
// non-zero integer part from exactly three digits.
func groupsThousands(s string, i int) bool {
	return len(s)-i-1 == 3 && i >= 1 && i <= 3 && strings.TrimLeft(s[:i], "0") != ""
}

// FormatValue renders a value for display, rounding numbers to decimals when
// it is set.
func FormatValue(v any, decimals *int) string {
	if decimals != nil {
		if _, isBool := v.(bool); !isBool {
			if f, ok := Float(v); ok {
				return strconv.FormatFloat(f, 'f', *decimals, 64)
			}
		}
	}
	return fieldgrid.Format(v)
}
