package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/config"
	"github.com/lvillar/formpdf/formdoc"
	"github.com/lvillar/formpdf/forms"
)

// renderFiles writes one PDF per report file into the output directory. It
// stops at the first failure.
func renderFiles(ctx context.Context, cfg *config.Config, catalog *forms.Catalog, opts []formpdf.Option, log *zap.Logger) error {
	if err := cfg.EnsureOutputDir(); err != nil {
		return err
	}
	for _, in := range cfg.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := renderFile(catalog, in, cfg.OutputDir, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		log.Info("report rendered", zap.String("input", in), zap.String("output", out))
	}
	return nil
}

func renderFile(catalog *forms.Catalog, path, outDir string, opts []formpdf.Option) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	r, err := formdoc.ParseReport(data)
	if err != nil {
		return "", err
	}

	spec, prepared, err := catalog.Prepare(r)
	if err != nil {
		return "", err
	}
	pdf, err := formdoc.RenderBytes(spec, prepared, opts...)
	if err != nil {
		return "", err
	}

	out := filepath.Join(outDir, forms.FileName(spec, prepared, ".pdf"))
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return "", err
	}
	return out, nil
}
