package mcp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/formpdf/forms"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c, err := forms.New()
	require.NoError(t, err)
	svc := &Service{Catalog: c}

	s := NewServerWithIO(nil, nil, nil)
	RegisterDefaultTools(s, svc)
	RegisterDefaultResources(s, svc)
	return s
}

func sendRequest(t *testing.T, s *Server, method string, id int, params interface{}) jsonrpcResponse {
	t.Helper()

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)
	reqBytes = append(reqBytes, '\n')

	var output bytes.Buffer
	s.input = bytes.NewReader(reqBytes)
	s.output = &output

	require.NoError(t, s.Run())

	var resp jsonrpcResponse
	require.NoError(t, json.Unmarshal(output.Bytes(), &resp), "response %q", output.String())
	return resp
}

// callTool runs a tool and returns the text of its first content block.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	resp := sendRequest(t, s, "tools/call", 10, map[string]interface{}{"name": name, "arguments": args})
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	content, ok := result["content"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, content)
	isErr, _ := result["isError"].(bool)
	return content[0].(map[string]interface{})["text"].(string), isErr
}

func base64Payload(t *testing.T, text string) []byte {
	t.Helper()
	idx := strings.Index(text, "Base64 data:\n")
	require.NotEqual(t, -1, idx, "no base64 payload in %q", text)
	data, err := base64.StdEncoding.DecodeString(text[idx+len("Base64 data:\n"):])
	require.NoError(t, err)
	return data
}

func pageCount(t *testing.T, text string) int {
	t.Helper()
	var n int
	_, err := fmt.Sscanf(text, "Pages: %d", &n)
	require.NoError(t, err)
	return n
}

func TestServerInitialize(t *testing.T) {
	s := newTestServer(t)
	resp := sendRequest(t, s, "initialize", 1, map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "test", "version": "1.0"},
	})
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, ProtocolVersion, result["protocolVersion"])
	assert.Equal(t, ServerName, result["serverInfo"].(map[string]interface{})["name"])
}

func TestServerToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := sendRequest(t, s, "tools/list", 2, nil)
	require.Nil(t, resp.Error)

	tools := resp.Result.(map[string]interface{})["tools"].([]interface{})
	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{
		"describe_form", "export_xlsx", "list_forms", "merge_reports",
		"new_report", "read_pdf_text", "render_form",
	}, names)
}

func TestServerResources(t *testing.T) {
	s := newTestServer(t)
	resp := sendRequest(t, s, "resources/list", 3, nil)
	require.Nil(t, resp.Error)
	resources := resp.Result.(map[string]interface{})["resources"].([]interface{})
	assert.Len(t, resources, 9)
	assert.Equal(t, CatalogURI, resources[0].(map[string]interface{})["uri"])

	resp = sendRequest(t, s, "resources/read", 4, map[string]interface{}{"uri": "forms://forms/bump-test"})
	require.Nil(t, resp.Error)
	contents := resp.Result.(map[string]interface{})["contents"].([]interface{})
	assert.Contains(t, contents[0].(map[string]interface{})["text"], "HSE-F-021")

	resp = sendRequest(t, s, "resources/read", 5, map[string]interface{}{"uri": "forms://nothing"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestServerUnknownMethod(t *testing.T) {
	s := newTestServer(t)
	resp := sendRequest(t, s, "prompts/list", 6, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestServerParseError(t *testing.T) {
	s := newTestServer(t)
	var out bytes.Buffer
	s.input = strings.NewReader("{not json\n")
	s.output = &out
	require.NoError(t, s.Run())

	var resp jsonrpcResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeParseError, resp.Error.Code)
}

func TestToolListAndDescribe(t *testing.T) {
	s := newTestServer(t)
	text, isErr := callTool(t, s, "list_forms", nil)
	assert.False(t, isErr)
	assert.Contains(t, text, "torque-register")

	text, isErr = callTool(t, s, "describe_form", map[string]interface{}{"slug": "torque-register"})
	assert.False(t, isErr)
	assert.Contains(t, text, "connections")

	text, isErr = callTool(t, s, "describe_form", map[string]interface{}{"slug": "nope"})
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown form")
}

func TestToolNewReportThenRender(t *testing.T) {
	s := newTestServer(t)
	text, isErr := callTool(t, s, "new_report", map[string]interface{}{"slug": "inertia-test"})
	require.False(t, isErr, text)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &report))
	assert.Equal(t, "inertia-test", report["form"])

	report["tables"] = map[string]interface{}{
		"trials": []interface{}{map[string]interface{}{"trial": 1, "measured": 70}},
	}
	text, isErr = callTool(t, s, "render_form", map[string]interface{}{"report": report, "draft": true})
	require.False(t, isErr, text)
	assert.True(t, bytes.HasPrefix(base64Payload(t, text), []byte("%PDF")))
}

func TestToolRenderToFileAndRead(t *testing.T) {
	s := newTestServer(t)
	out := filepath.Join(t.TempDir(), "bump.pdf")
	report := map[string]interface{}{
		"form":   "bump-test",
		"fields": map[string]interface{}{"location": "POZO"},
	}
	text, isErr := callTool(t, s, "render_form", map[string]interface{}{"report": report, "outputPath": out})
	require.False(t, isErr, text)
	assert.Contains(t, text, out)

	text, isErr = callTool(t, s, "read_pdf_text", map[string]interface{}{"path": out})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Pages: 1")
	assert.Contains(t, text, "POZO")
}

func TestToolRenderErrors(t *testing.T) {
	s := newTestServer(t)
	_, isErr := callTool(t, s, "render_form", map[string]interface{}{})
	assert.True(t, isErr)

	_, isErr = callTool(t, s, "render_form", map[string]interface{}{"report": map[string]interface{}{"form": "nope"}})
	assert.True(t, isErr)

	_, isErr = callTool(t, s, "render_form", map[string]interface{}{
		"report":      map[string]interface{}{"form": "bump-test"},
		"orientation": "diagonal",
	})
	assert.True(t, isErr)
}

func TestToolExportXLSX(t *testing.T) {
	s := newTestServer(t)
	text, isErr := callTool(t, s, "export_xlsx", map[string]interface{}{
		"report": map[string]interface{}{"form": "performance-evaluation"},
	})
	require.False(t, isErr, text)
	// XLSX files are zip archives.
	assert.True(t, bytes.HasPrefix(base64Payload(t, text), []byte("PK")))
}

func TestToolMergeReports(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.pdf")
	_, isErr := callTool(t, s, "render_form", map[string]interface{}{
		"report":     map[string]interface{}{"form": "torque-register"},
		"outputPath": first,
	})
	require.False(t, isErr)

	merged := filepath.Join(dir, "merged.pdf")
	text, isErr := callTool(t, s, "merge_reports", map[string]interface{}{
		"reports":    []interface{}{map[string]interface{}{"form": "bump-test"}},
		"files":      []interface{}{first},
		"outputPath": merged,
	})
	require.False(t, isErr, text)

	single, isErr := callTool(t, s, "read_pdf_text", map[string]interface{}{"path": first})
	require.False(t, isErr, single)
	text, isErr = callTool(t, s, "read_pdf_text", map[string]interface{}{"path": merged})
	require.False(t, isErr, text)
	assert.Greater(t, pageCount(t, text), pageCount(t, single))

	_, isErr = callTool(t, s, "merge_reports", map[string]interface{}{})
	assert.True(t, isErr)

	_, err := os.Stat(merged)
	assert.NoError(t, err)
}
