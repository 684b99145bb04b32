package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/config"
	"github.com/a3tai/mcp-form-filler/internal/filler"
	"github.com/a3tai/mcp-form-filler/internal/stamp"
)

const coordinatesJSON = `[
  {
    "form_name": "Pay-in-Slip",
    "fields": [
      {"field": "Account No", "start": [50, 100], "end": [161, 100], "spacing": 18.5},
      {"field": "Credit To", "start": [100, 50]},
      {"field": "Amount", "start": [300, 50]}
    ]
  }
]`

const catalogJSON = `[
  {
    "issuer": "India Post",
    "forms": [{
      "form_name": "Pay-in-Slip",
      "description": "Deposit into a savings account",
      "aliases": ["deposit slip"],
      "document_path": "Pay-in-Slip.pdf",
      "coordinates_path": "field_coordinates.json"
    }]
  }
]`

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()

	c := stamp.NewCanvas()
	for i := 1; i <= 2; i++ {
		c.AddPage(595.28, 841.89)
		c.Text(stamp.DrawOp{
			Text: fmt.Sprintf("PAGE %d", i), X: 72, Y: 72,
			Font: stamp.Font{Family: stamp.FamilyHelvetica, Size: 12},
		})
	}
	data, err := c.Bytes()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Pay-in-Slip.pdf"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "field_coordinates.json"), []byte(coordinatesJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultCatalogName), []byte(catalogJSON), 0o644))

	cfg := config.DefaultConfig()
	cfg.FormsDirectory = dir
	cfg.CatalogPath = filepath.Join(dir, config.DefaultCatalogName)

	svc, err := filler.NewService(filler.Options{
		Directory:   cfg.FormsDirectory,
		CatalogPath: cfg.CatalogPath,
		MaxFileSize: cfg.MaxFileSize,
		CacheSize:   cfg.CacheSize,
		Style:       cfg.Style(),
	})
	require.NoError(t, err)

	server, err := NewServer(cfg, svc)
	require.NoError(t, err)
	return server, dir
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(config.DefaultConfig(), nil)
	assert.Error(t, err)

	server, _ := newTestServer(t)
	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.filler)
}

func TestServer_ToolsRegistered(t *testing.T) {
	server, _ := newTestServer(t)

	msg := server.mcpServer.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range []string{"form_list", "form_fields", "form_fill", "form_grid", "form_inspect"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}

func TestServer_HandleFormList(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleFormList(context.Background(), callTool(map[string]interface{}{}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Found 1 form(s)")
	assert.Contains(t, text, "India Post")
	assert.Contains(t, text, "Pay-in-Slip: Deposit into a savings account (aliases: deposit slip) [3 fields]")
	assert.NotContains(t, text, "unavailable")

	result, err = server.handleFormList(context.Background(), callTool(map[string]interface{}{"issuer": "SBI"}))
	require.NoError(t, err)
	assert.Equal(t, "No forms found in the catalog", extractTextFromResult(result))
}

func TestServer_HandleFormFields(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleFormFields(context.Background(), callTool(map[string]interface{}{
		"form_name": "deposit slip",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Form: Pay-in-Slip")
	assert.Contains(t, text, "Fields (3):")
	assert.Contains(t, text, "Account No [spaced] max 7 characters")
	assert.Contains(t, text, "Credit To [text]")

	result, err = server.handleFormFields(context.Background(), callTool(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleFormFill(t *testing.T) {
	tests := []struct {
		name   string
		values interface{}
	}{
		{
			name:   "object values",
			values: map[string]interface{}{"Credit To": "Jane Doe", "Account No": "2544631", "Amount": float64(5000)},
		},
		{
			name:   "json string values",
			values: `{"Credit To": "Jane Doe", "Account No": "2544631", "Amount": 5000}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, dir := newTestServer(t)

			result, err := server.handleFormFill(context.Background(), callTool(map[string]interface{}{
				"form_name": "Pay-in-Slip",
				"values":    tt.values,
				"font_size": 11,
				"bold":      false,
				"color":     "#000000",
			}))
			require.NoError(t, err)
			require.False(t, result.IsError, extractTextFromResult(result))

			text := extractTextFromResult(result)
			assert.Contains(t, text, "Filled form Pay-in-Slip")
			assert.Contains(t, text, "Pages: 2")
			assert.Contains(t, text, "Fields rendered: 3")
			assert.Contains(t, text, "Style: Helvetica 11pt bold=false #000000")
			assert.NotContains(t, text, "Fields left blank")
			assert.FileExists(t, filepath.Join(dir, "Pay-in-Slip_filled.pdf"))
		})
	}
}

func TestServer_HandleFormFill_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "missing form name", args: map[string]interface{}{"values": map[string]interface{}{}}},
		{name: "values not an object", args: map[string]interface{}{"form_name": "Pay-in-Slip", "values": 42}, want: "values must be an object"},
		{name: "values invalid json", args: map[string]interface{}{"form_name": "Pay-in-Slip", "values": "{nope"}, want: "values must be an object"},
		{name: "bad bold", args: map[string]interface{}{"form_name": "Pay-in-Slip", "values": map[string]interface{}{}, "bold": "maybe"}, want: "bold"},
		{name: "bad font size", args: map[string]interface{}{"form_name": "Pay-in-Slip", "values": map[string]interface{}{}, "font_size": "big"}, want: "font_size"},
		{name: "unknown form", args: map[string]interface{}{"form_name": "Nope", "values": map[string]interface{}{}}, want: "CONFIG_ERROR"},
		{name: "bad color", args: map[string]interface{}{"form_name": "Pay-in-Slip", "values": map[string]interface{}{"Amount": "1"}, "color": "red"}, want: "malformed color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, dir := newTestServer(t)

			result, err := server.handleFormFill(context.Background(), callTool(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
			assert.NoFileExists(t, filepath.Join(dir, "Pay-in-Slip_filled.pdf"))
		})
	}
}

func TestServer_HandleFormFill_Diagnostics(t *testing.T) {
	server, dir := newTestServer(t)
	broken := `[{"form_name": "Broken", "fields": [
		{"field": "ok", "start": [10, 10]},
		{"field": "lost", "type": "multiline", "start": [10, 40]}
	]}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(broken), 0o644))

	result, err := server.handleFormFill(context.Background(), callTool(map[string]interface{}{
		"form_name":        "Broken",
		"coordinates_path": "broken.json",
		"source_path":      "Pay-in-Slip.pdf",
		"output_path":      "broken_out.pdf",
		"values":           map[string]interface{}{"ok": "yes", "lost": "no end"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Fields rendered: 1")
	assert.Contains(t, text, `error: field "lost": multiline field requires end`)
}

func TestServer_HandleFormGrid(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handleFormGrid(context.Background(), callTool(map[string]interface{}{
		"source_path": "Pay-in-Slip.pdf",
		"spacing":     float64(25),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Pages: 2")
	assert.Contains(t, text, "Grid: 25pt, labels every 100pt")
	assert.FileExists(t, filepath.Join(dir, "Pay-in-Slip_with_coordinates.pdf"))

	result, err = server.handleFormGrid(context.Background(), callTool(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = server.handleFormGrid(context.Background(), callTool(map[string]interface{}{
		"source_path":   "Pay-in-Slip.pdf",
		"output_path":   "tiny_grid.pdf",
		"spacing":       0.01,
		"major_spacing": 0.01,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "below the minimum")
	assert.NoFileExists(t, filepath.Join(dir, "tiny_grid.pdf"))
}

func TestServer_HandleFormInspect(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleFormInspect(context.Background(), callTool(map[string]interface{}{
		"path": "Pay-in-Slip.pdf",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Pages: 2")
	assert.Contains(t, text, "--- Page 2 ---")
	assert.Contains(t, text, "PAGE 2")
	assert.NotContains(t, text, "Stamped:")

	_, err = server.handleFormFill(context.Background(), callTool(map[string]interface{}{
		"form_name": "Pay-in-Slip",
		"values":    map[string]interface{}{"Credit To": "Jane Doe"},
	}))
	require.NoError(t, err)
	result, err = server.handleFormInspect(context.Background(), callTool(map[string]interface{}{
		"path": "Pay-in-Slip_filled.pdf",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	assert.Contains(t, extractTextFromResult(result), "Stamped:\nJane Doe\n")

	result, err = server.handleFormInspect(context.Background(), callTool(map[string]interface{}{
		"path": "../../etc/passwd",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestValuesArg(t *testing.T) {
	got, err := valuesArg(map[string]interface{}{
		"name":   "Jane",
		"amount": float64(1500.5),
		"count":  float64(3),
		"agree":  true,
		"skip":   nil,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Jane", "amount": "1500.5", "count": "3", "agree": "true"}, got)

	_, err = valuesArg(nil)
	assert.Error(t, err)
	_, err = valuesArg([]interface{}{"a"})
	assert.Error(t, err)
}

func TestStyleArgs(t *testing.T) {
	style, err := styleArgs(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, stamp.StyleOverrides{}, style)

	style, err = styleArgs(map[string]interface{}{
		"font": "Courier", "font_size": "12", "bold": "true", "color": "#ff0000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Courier", *style.FontFamily)
	assert.Equal(t, 12.0, *style.FontSize)
	assert.True(t, *style.Bold)
	assert.Equal(t, "#ff0000", *style.ColorHex)

	_, err = styleArgs(map[string]interface{}{"bold": 1.0})
	assert.Error(t, err)
}

// extractTextFromResult returns the first text content of a tool result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}
