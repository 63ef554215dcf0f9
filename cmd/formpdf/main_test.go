package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bump.json")
	report := `{"form":"bump-test","fields":{"date":"2024-05-02","location":"POZO 12"}}`
	require.NoError(t, os.WriteFile(in, []byte(report), 0o644))

	out := filepath.Join(dir, "out")
	err := run(context.Background(), []string{"--mode=render", "--output-dir=" + out, "--log-level=error", in}, nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "bump-test_2024-05-02.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRunRenderErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"form":"nope"}`), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"no inputs", []string{"--mode=render"}},
		{"missing file", []string{"--mode=render", "--output-dir=" + dir, filepath.Join(dir, "missing.json")}},
		{"unknown form", []string{"--mode=render", "--output-dir=" + dir, bad}},
		{"bad mode", []string{"--mode=fax"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--log-level=error"}, tt.args...)
			assert.Error(t, run(context.Background(), args, nil, nil))
		})
	}
}

func TestRunMCP(t *testing.T) {
	in := bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--mode=mcp", "--log-level=error"}, in, &out))
	assert.Contains(t, out.String(), "render_form")
}
