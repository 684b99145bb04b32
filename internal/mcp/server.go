package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-form-filler/internal/config"
	"github.com/a3tai/mcp-form-filler/internal/descriptions"
	"github.com/a3tai/mcp-form-filler/internal/filler"
	"github.com/a3tai/mcp-form-filler/internal/stamp"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	filler    *filler.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, fillerService *filler.Service) (*Server, error) {
	if fillerService == nil {
		return nil, fmt.Errorf("fillerService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		filler:    fillerService,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"form_list",
		mcp.WithDescription(descriptions.GetToolDescription("form_list")),
		mcp.WithString("issuer",
			mcp.Description("Only list forms of this issuer"),
		),
	), s.handleFormList)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_fields",
		mcp.WithDescription(descriptions.GetToolDescription("form_fields")),
		mcp.WithString("form_name",
			mcp.Required(),
			mcp.Description("Form name or alias from the catalog"),
		),
		mcp.WithString("issuer",
			mcp.Description("Issuer, needed when several issuers have a form of that name"),
		),
		mcp.WithString("coordinates_path",
			mcp.Description("Coordinates file to read instead of the catalog entry"),
		),
	), s.handleFormFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_fill",
		mcp.WithDescription(descriptions.GetToolDescription("form_fill")),
		mcp.WithString("form_name",
			mcp.Required(),
			mcp.Description("Form name or alias from the catalog"),
		),
		mcp.WithObject("values",
			mcp.Required(),
			mcp.Description("Field name to value map; a JSON-encoded object string is accepted too"),
		),
		mcp.WithString("issuer",
			mcp.Description("Issuer, needed when several issuers have a form of that name"),
		),
		mcp.WithString("coordinates_path",
			mcp.Description("Coordinates file to use instead of the catalog entry"),
		),
		mcp.WithString("source_path",
			mcp.Description("Blank form PDF to use instead of the catalog entry"),
		),
		mcp.WithString("output_path",
			mcp.Description("Output path (default <source>_filled.pdf next to the source)"),
		),
		mcp.WithString("font",
			mcp.Description("Font family: Helvetica, Courier or Times-Roman"),
		),
		mcp.WithNumber("font_size",
			mcp.Description("Font size in points for fields without their own size"),
		),
		mcp.WithBoolean("bold",
			mcp.Description("Bold weight for fields without their own setting"),
		),
		mcp.WithString("color",
			mcp.Description("Text color as #RRGGBB"),
		),
	), s.handleFormFill)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_grid",
		mcp.WithDescription(descriptions.GetToolDescription("form_grid")),
		mcp.WithString("source_path",
			mcp.Required(),
			mcp.Description("PDF to calibrate"),
		),
		mcp.WithString("output_path",
			mcp.Description("Output path (default <source>_with_coordinates.pdf)"),
		),
		mcp.WithNumber("spacing",
			mcp.Description("Grid line spacing in points (default 50)"),
		),
		mcp.WithNumber("major_spacing",
			mcp.Description("Labelled grid line spacing in points (default 100)"),
		),
	), s.handleFormGrid)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_inspect",
		mcp.WithDescription(descriptions.GetToolDescription("form_inspect")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path inside the forms directory"),
		),
	), s.handleFormInspect)
}

func (s *Server) handleFormList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	result, err := s.filler.ListForms(filler.ListFormsRequest{Issuer: stringArg(args, "issuer")})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatListFormsResult(result)), nil
}

func (s *Server) handleFormFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formName, err := request.RequireString("form_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	result, err := s.filler.FormFields(filler.FormFieldsRequest{
		FormName:        formName,
		Issuer:          stringArg(args, "issuer"),
		CoordinatesPath: stringArg(args, "coordinates_path"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatFormFieldsResult(result)), nil
}

func (s *Server) handleFormFill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formName, err := request.RequireString("form_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	values, err := valuesArg(args["values"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	style, err := styleArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.filler.Fill(filler.FillRequest{
		Values:          values,
		FormName:        formName,
		Issuer:          stringArg(args, "issuer"),
		CoordinatesPath: stringArg(args, "coordinates_path"),
		SourcePath:      stringArg(args, "source_path"),
		OutputPath:      stringArg(args, "output_path"),
		Style:           style,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatFillResult(result)), nil
}

func (s *Server) handleFormGrid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	req := filler.GridRequest{SourcePath: source, OutputPath: stringArg(args, "output_path")}
	if req.Spacing, _, err = numberArg(args, "spacing"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.MajorSpacing, _, err = numberArg(args, "major_spacing"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.filler.Grid(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Calibration grid written to: %s\n", result.OutputPath)
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Grid: %gpt, labels every %gpt\n", result.Options.Spacing, result.Options.MajorSpacing)
	for i, p := range result.Pages {
		text += fmt.Sprintf("  Page %d: %.2f x %.2f pts\n", i+1, p.Width, p.Height)
	}
	text += "\nCoordinates on the grid use the origin at the top-left corner with Y increasing downward, " +
		"the same convention as coordinates files.\n"
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFormInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.filler.Inspect(filler.InspectRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Document: %s\nPages: %d\nSize: %d bytes\n", result.Path, result.PageCount, result.Size)
	for _, p := range result.Pages {
		text += fmt.Sprintf("\n--- Page %d ---\n%s\n", p.Page, strings.TrimSpace(p.Text))
		if p.Stamped != "" {
			text += fmt.Sprintf("Stamped:\n%s\n", p.Stamped)
		}
	}
	return mcp.NewToolResultText(text), nil
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// numberArg accepts JSON numbers and numeric strings
func numberArg(args map[string]interface{}, key string) (float64, bool, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s must be a number, got %q", key, v)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
}

func boolArg(args map[string]interface{}, key string) (bool, bool, error) {
	switch v := args[key].(type) {
	case nil:
		return false, false, nil
	case bool:
		return v, true, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false, fmt.Errorf("%s must be true or false, got %q", key, v)
		}
		return b, true, nil
	default:
		return false, false, fmt.Errorf("%s must be a boolean", key)
	}
}

// valuesArg converts the values argument into a field to value map. Non-string values are
// formatted; null values are dropped.
func valuesArg(raw interface{}) (map[string]string, error) {
	if s, ok := raw.(string); ok {
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("values must be an object: %w", err)
		}
		raw = decoded
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("values must be an object mapping field names to values")
	}

	values := make(map[string]string, len(obj))
	for field, v := range obj {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			values[field] = val
		case float64:
			values[field] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			values[field] = fmt.Sprint(val)
		}
	}
	return values, nil
}

func styleArgs(args map[string]interface{}) (stamp.StyleOverrides, error) {
	var style stamp.StyleOverrides
	if font := stringArg(args, "font"); font != "" {
		style.FontFamily = &font
	}
	if color := stringArg(args, "color"); color != "" {
		style.ColorHex = &color
	}

	size, ok, err := numberArg(args, "font_size")
	if err != nil {
		return style, err
	}
	if ok {
		style.FontSize = &size
	}

	bold, ok, err := boolArg(args, "bold")
	if err != nil {
		return style, err
	}
	if ok {
		style.Bold = &bold
	}
	return style, nil
}

func formatListFormsResult(result *filler.ListFormsResult) string {
	if result.TotalCount == 0 {
		return "No forms found in the catalog"
	}

	byIssuer := make(map[string][]filler.FormInfo)
	for _, f := range result.Forms {
		byIssuer[f.Issuer] = append(byIssuer[f.Issuer], f)
	}
	issuers := make([]string, 0, len(byIssuer))
	for issuer := range byIssuer {
		issuers = append(issuers, issuer)
	}
	sort.Strings(issuers)

	text := fmt.Sprintf("Found %d form(s):\n", result.TotalCount)
	for _, issuer := range issuers {
		text += fmt.Sprintf("\n%s\n", issuer)
		for _, f := range byIssuer[issuer] {
			text += fmt.Sprintf("  - %s", f.FormName)
			if f.Description != "" {
				text += fmt.Sprintf(": %s", f.Description)
			}
			if len(f.Aliases) > 0 {
				text += fmt.Sprintf(" (aliases: %s)", strings.Join(f.Aliases, ", "))
			}
			if f.Available {
				text += fmt.Sprintf(" [%d fields]", f.FieldCount)
			} else {
				text += " [unavailable: document or form definition missing]"
			}
			text += "\n"
		}
	}
	return text
}

func formatFormFieldsResult(result *filler.FormFieldsResult) string {
	text := fmt.Sprintf("Form: %s\n", result.FormName)
	if result.Issuer != "" {
		text += fmt.Sprintf("Issuer: %s\n", result.Issuer)
	}
	text += fmt.Sprintf("Fields (%d):\n", result.TotalCount)
	for _, f := range result.Fields {
		text += fmt.Sprintf("  - %s [%s]", f.Name, f.Kind)
		if f.MaxChars > 0 {
			text += fmt.Sprintf(" max %d characters", f.MaxChars)
		}
		if f.Value != "" {
			text += fmt.Sprintf(" default %q", f.Value)
		}
		text += "\n"
	}
	return text
}

func formatFillResult(result *filler.FillResult) string {
	text := fmt.Sprintf("Filled form %s\n", result.FormName)
	text += fmt.Sprintf("Output: %s\n", result.OutputPath)
	text += fmt.Sprintf("Source: %s\n", result.SourcePath)
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Fields rendered: %d\n", result.FieldsRendered)
	text += fmt.Sprintf("Style: %s %gpt bold=%t %s\n", result.Style.FontFamily, result.Style.FontSize,
		result.Style.Bold, result.Style.Color.Hex())

	if len(result.Unfilled) > 0 {
		text += fmt.Sprintf("\nFields left blank: %s\n", strings.Join(result.Unfilled, ", "))
	}
	if len(result.Diagnostics) > 0 {
		text += "\nDiagnostics:\n"
		for _, d := range result.Diagnostics {
			text += fmt.Sprintf("  - %s\n", d)
		}
	}
	return text
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting form filler MCP server in stdio mode")
		log.Printf("Forms directory: %s", s.config.FormsDirectory)
		log.Printf("Catalog: %s", s.config.CatalogPath)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
