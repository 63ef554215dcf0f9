// Package bundle merges rendered forms into a single PDF, for example the
// day's checklists of one rig. Pages are copied as they are and keep their
// original size and orientation.
package bundle

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/inspect"
)

// Part is one document to merge.
type Part struct {
	Name string // used in error messages only
	Data []byte
}

func (p Part) label(i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("document %d", i+1)
}

// Merge writes the pages of every part, in order, to w. Every part is read
// first so that a broken one is reported by name.
func Merge(w io.Writer, parts ...Part) error {
	if len(parts) == 0 {
		return fmt.Errorf("bundle: %w: no documents provided", formpdf.ErrInvalidParam)
	}

	sources := make([]io.ReadSeeker, len(parts))
	for i, p := range parts {
		if _, err := inspect.PageCount(p.Data); err != nil {
			return fmt.Errorf("bundle: merging %s: %w", p.label(i), err)
		}
		sources[i] = bytes.NewReader(p.Data)
	}

	// A single document needs no merge.
	if len(parts) == 1 {
		_, err := w.Write(parts[0].Data)
		return err
	}

	if err := api.MergeRaw(sources, w, false, mergeConfig()); err != nil {
		return fmt.Errorf("bundle: merging: %w", err)
	}
	return nil
}

// Bytes merges parts and returns the combined PDF.
func Bytes(parts ...Part) ([]byte, error) {
	var buf bytes.Buffer
	if err := Merge(&buf, parts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mergeConfig writes a classic xref table without object streams, which
// every reader in the pipeline understands.
func mergeConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}
