// Command formpdf renders HSE and maintenance checklists to PDF.
//
// # Installation
//
//	go install github.com/lvillar/formpdf/cmd/formpdf@latest
//
// # Modes
//
//	formpdf --mode=render --output-dir=out report1.json report2.json
//	formpdf --mode=http --port=8080
//	formpdf --mode=mcp
//
// Render mode writes one PDF per report file, named after the form and the
// report's date or ID. HTTP mode serves the JSON API. MCP mode speaks the
// Model Context Protocol on stdio; add to claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "formpdf": {
//	      "command": "formpdf",
//	      "args": ["--mode=mcp"]
//	    }
//	  }
//	}
//
// # Environment
//
// Every flag can be set as FORMPDF_<NAME>, e.g. FORMPDF_FORMS_DIR. A .env file
// in the working directory is loaded first.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lvillar/formpdf/config"
	"github.com/lvillar/formpdf/forms"
	"github.com/lvillar/formpdf/mcp"
	"github.com/lvillar/formpdf/server"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "formpdf: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	log, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	catalog, err := forms.New(forms.WithDir(cfg.FormsDir), forms.WithLogger(log))
	if err != nil {
		return err
	}
	opts, err := cfg.DocumentOptions()
	if err != nil {
		return err
	}

	log.Info("formpdf starting", zap.String("mode", cfg.Mode), zap.Int("forms", len(catalog.List())))

	switch cfg.Mode {
	case config.ModeRender:
		return renderFiles(ctx, cfg, catalog, opts, log)
	case config.ModeHTTP:
		return server.New(catalog, log, opts...).Run(ctx, cfg.Address())
	default:
		svc := &mcp.Service{Catalog: catalog, Options: opts, Log: log}
		s := mcp.NewServerWithIO(stdin, stdout, log)
		mcp.RegisterDefaultTools(s, svc)
		mcp.RegisterDefaultResources(s, svc)
		return s.Run()
	}
}
