package mcp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/bundle"
	"github.com/lvillar/formpdf/formdoc"
	"github.com/lvillar/formpdf/forms"
	"github.com/lvillar/formpdf/inspect"
	"github.com/lvillar/formpdf/xlsx"
)

// Service holds what the tools need: the form catalog and the document options
// every render starts from.
type Service struct {
	Catalog *forms.Catalog
	Options []formpdf.Option
	Log     *zap.Logger
}

func (svc *Service) logger() *zap.Logger {
	if svc.Log == nil {
		return zap.NewNop()
	}
	return svc.Log
}

// RegisterDefaultTools adds all built-in form tools to the server.
func RegisterDefaultTools(s *Server, svc *Service) {
	s.AddTool(listFormsTool(svc))
	s.AddTool(describeFormTool(svc))
	s.AddTool(newReportTool(svc))
	s.AddTool(renderFormTool(svc))
	s.AddTool(exportXLSXTool(svc))
	s.AddTool(mergeReportsTool(svc))
	s.AddTool(readPDFTextTool())
}

var reportSchema = map[string]interface{}{
	"type":        "object",
	"description": "Report data: {form, id, fields: {key: value}, tables: {key: [{column: value}]}, signatures: {role: {data, name}}}",
}

func textResult(format string, args ...interface{}) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}}}
}

func jsonResult(v interface{}) (ToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ToolResult{}, fmt.Errorf("encoding result: %w", err)
	}
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: string(data)}}}, nil
}

// binaryResult saves data to outputPath when given, otherwise returns it as
// base64.
func binaryResult(args map[string]interface{}, kind string, data []byte) (ToolResult, error) {
	if outputPath, ok := args["outputPath"].(string); ok && outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		return textResult("%s created successfully: %s (%d bytes)", kind, outputPath, len(data)), nil
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return textResult("%s created successfully (%d bytes). Base64 data:\n%s", kind, len(data), encoded), nil
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("missing '%s' argument", name)
	}
	return v, nil
}

func reportArg(v interface{}) (formdoc.Report, error) {
	if v == nil {
		return formdoc.Report{}, fmt.Errorf("missing 'report' argument")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return formdoc.Report{}, fmt.Errorf("encoding report: %w", err)
	}
	r, err := formdoc.ParseReport(data)
	if err != nil {
		return formdoc.Report{}, err
	}
	if r.Form == "" {
		return formdoc.Report{}, fmt.Errorf("report has no 'form'")
	}
	return r, nil
}

// renderOptions appends per-call overrides to the service defaults.
func (svc *Service) renderOptions(args map[string]interface{}) ([]formpdf.Option, error) {
	opts := append([]formpdf.Option(nil), svc.Options...)
	if o, ok := args["orientation"].(string); ok && o != "" {
		orientation, err := formpdf.ParseOrientation(o)
		if err != nil {
			return nil, err
		}
		opts = append(opts, formpdf.WithOrientation(orientation))
	}
	if draft, ok := args["draft"].(bool); ok && draft {
		opts = append(opts, formpdf.WithDraftWatermark("BORRADOR"))
	}
	return opts, nil
}

func listFormsTool(svc *Service) Tool {
	return Tool{
		Name:        "list_forms",
		Description: "List the printable forms in the catalog (slug, title, code, orientation).",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			return jsonResult(svc.Catalog.List())
		},
	}
}

func describeFormTool(svc *Service) Tool {
	return Tool{
		Name:        "describe_form",
		Description: "Return the definition of a form: its sections, fields, table columns and signature roles.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"slug": map[string]interface{}{"type": "string", "description": "Form slug, e.g. bump-test"},
			},
			"required": []string{"slug"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			slug, err := stringArg(args, "slug")
			if err != nil {
				return ToolResult{}, err
			}
			spec, err := svc.Catalog.Get(slug)
			if err != nil {
				return ToolResult{}, err
			}
			return jsonResult(spec)
		},
	}
}

func newReportTool(svc *Service) Tool {
	return Tool{
		Name:        "new_report",
		Description: "Create a blank report for a form, with a fresh ID, field defaults and empty tables, ready to fill in.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"slug": map[string]interface{}{"type": "string", "description": "Form slug"},
			},
			"required": []string{"slug"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			slug, err := stringArg(args, "slug")
			if err != nil {
				return ToolResult{}, err
			}
			r, err := svc.Catalog.NewReport(slug)
			if err != nil {
				return ToolResult{}, err
			}
			return jsonResult(r)
		},
	}
}

func renderFormTool(svc *Service) Tool {
	return Tool{
		Name:        "render_form",
		Description: "Render a filled-in report to PDF. Derived values (volumes, margins, averages) are computed first. Returns the PDF as base64 unless outputPath is given.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"report":      reportSchema,
				"orientation": map[string]interface{}{"type": "string", "enum": []string{"portrait", "landscape"}},
				"draft":       map[string]interface{}{"type": "boolean", "description": "Stamp a BORRADOR watermark"},
				"outputPath":  map[string]interface{}{"type": "string", "description": "Optional file path to save the PDF"},
			},
			"required": []string{"report"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			r, err := reportArg(args["report"])
			if err != nil {
				return ToolResult{}, err
			}
			opts, err := svc.renderOptions(args)
			if err != nil {
				return ToolResult{}, err
			}
			data, err := svc.Catalog.RenderBytes(r, opts...)
			if err != nil {
				return ToolResult{}, fmt.Errorf("rendering PDF: %w", err)
			}
			svc.logger().Info("form rendered", zap.String("form", r.Form), zap.Int("bytes", len(data)))
			return binaryResult(args, "PDF", data)
		},
	}
}

func exportXLSXTool(svc *Service) Tool {
	return Tool{
		Name:        "export_xlsx",
		Description: "Export a filled-in report as an Excel workbook. Returns base64 unless outputPath is given.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"report":     reportSchema,
				"outputPath": map[string]interface{}{"type": "string", "description": "Optional file path to save the workbook"},
			},
			"required": []string{"report"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			r, err := reportArg(args["report"])
			if err != nil {
				return ToolResult{}, err
			}
			spec, prepared, err := svc.Catalog.Prepare(r)
			if err != nil {
				return ToolResult{}, err
			}
			data, err := xlsx.Bytes(spec, prepared)
			if err != nil {
				return ToolResult{}, fmt.Errorf("exporting workbook: %w", err)
			}
			return binaryResult(args, "XLSX", data)
		},
	}
}

func mergeReportsTool(svc *Service) Tool {
	return Tool{
		Name:        "merge_reports",
		Description: "Render several reports and/or existing PDF files and merge them into one PDF, in the order given (reports first, then files).",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"reports": map[string]interface{}{
					"type":  "array",
					"items": reportSchema,
				},
				"files": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Paths of PDF files to append",
				},
				"outputPath": map[string]interface{}{"type": "string", "description": "Optional file path to save the merged PDF"},
			},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			var parts []bundle.Part

			reports, _ := args["reports"].([]interface{})
			for i, raw := range reports {
				r, err := reportArg(raw)
				if err != nil {
					return ToolResult{}, fmt.Errorf("report %d: %w", i+1, err)
				}
				data, err := svc.Catalog.RenderBytes(r, svc.Options...)
				if err != nil {
					return ToolResult{}, fmt.Errorf("report %d: %w", i+1, err)
				}
				parts = append(parts, bundle.Part{Name: r.Form, Data: data})
			}

			files, _ := args["files"].([]interface{})
			for _, f := range files {
				path, ok := f.(string)
				if !ok {
					return ToolResult{}, fmt.Errorf("'files' must contain strings")
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return ToolResult{}, fmt.Errorf("reading %s: %w", path, err)
				}
				parts = append(parts, bundle.Part{Name: path, Data: data})
			}

			data, err := bundle.Bytes(parts...)
			if err != nil {
				return ToolResult{}, err
			}
			return binaryResult(args, "PDF", data)
		},
	}
}

func readPDFTextTool() Tool {
	return Tool{
		Name:        "read_pdf_text",
		Description: "Extract the page sizes and the plain text of every page of a PDF file.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{"type": "string", "description": "Path to the PDF file"},
			},
			"required": []string{"path"},
		},
		Handler: handleReadPDFText,
	}
}

func handleReadPDFText(args map[string]interface{}) (ToolResult, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return ToolResult{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("opening PDF: %w", err)
	}
	info, err := inspect.Inspect(data)
	if err != nil {
		return ToolResult{}, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "Pages: %d\n\n", info.PageCount)
	for _, p := range info.Pages {
		fmt.Fprintf(&out, "--- Page %d (%.0fx%.0f pt) ---\n%s\n\n", p.Number, p.Width, p.Height, p.Text)
	}
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: out.String()}}}, nil
}
