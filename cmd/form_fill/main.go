package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-form-filler/internal/config"
	"github.com/a3tai/mcp-form-filler/internal/filler"
	"github.com/a3tai/mcp-form-filler/internal/stamp"
)

type options struct {
	dir         string
	catalog     string
	formName    string
	issuer      string
	coordinates string
	source      string
	output      string
	valuesFile  string
	sets        []string
	font        string
	size        float64
	bold        bool
	color       string
	jsonOutput  bool
	verbose     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, flags, err := parseFlags(args, stderr)
	if err == pflag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	values, err := collectValues(opts.valuesFile, opts.sets)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(stderr, "form_fill: ", 0)
	}

	catalog := opts.catalog
	if catalog == "" {
		catalog = filepath.Join(opts.dir, config.DefaultCatalogName)
	}

	svc, err := filler.NewService(filler.Options{
		Directory:   opts.dir,
		CatalogPath: catalog,
		MaxFileSize: config.DefaultMaxFileSize,
		CacheSize:   1,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result, err := svc.Fill(filler.FillRequest{
		Values:          values,
		FormName:        opts.formName,
		Issuer:          opts.issuer,
		CoordinatesPath: opts.coordinates,
		SourcePath:      opts.source,
		OutputPath:      opts.output,
		Style:           styleFromFlags(opts, flags),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stdout, "Filled %s -> %s (%d field(s) on %d page(s))\n",
		result.FormName, result.OutputPath, result.FieldsRendered, result.PageCount)
	for _, d := range result.Diagnostics {
		fmt.Fprintf(stdout, "  %s\n", d)
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, *pflag.FlagSet, error) {
	opts := &options{}
	flags := pflag.NewFlagSet("form_fill", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.StringVarP(&opts.dir, "dir", "d", ".", "Forms directory")
	flags.StringVar(&opts.catalog, "catalog", "", "Catalog file (default <dir>/"+config.DefaultCatalogName+")")
	flags.StringVarP(&opts.formName, "form", "f", "", "Form name or alias")
	flags.StringVar(&opts.issuer, "issuer", "", "Issuer of the form")
	flags.StringVar(&opts.coordinates, "coordinates", "", "Coordinates file instead of the catalog entry")
	flags.StringVar(&opts.source, "source", "", "Blank form PDF instead of the catalog entry")
	flags.StringVarP(&opts.output, "output", "o", "", "Output PDF (default <source>_filled.pdf)")
	flags.StringVar(&opts.valuesFile, "values", "", "JSON or YAML file mapping field names to values")
	flags.StringArrayVar(&opts.sets, "set", nil, "Field value as name=value, repeatable")
	flags.StringVar(&opts.font, "font", stamp.DefaultFamily, "Font family: Helvetica, Courier or Times-Roman")
	flags.Float64Var(&opts.size, "font-size", stamp.DefaultFontSize, "Font size in points")
	flags.BoolVar(&opts.bold, "bold", stamp.DefaultBold, "Bold weight")
	flags.StringVar(&opts.color, "color", stamp.DefaultColor.Hex(), "Text color as #RRGGBB")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the fill result as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log per-field diagnostics to stderr")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: form_fill --form NAME [--values FILE] [--set field=value ...] [flags]\n\n")
		fmt.Fprintf(stderr, "Fills a form from the catalog in the forms directory.\n\nFlags:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	if opts.formName == "" {
		return nil, nil, fmt.Errorf("--form is required")
	}
	return opts, flags, nil
}

// styleFromFlags only overrides what was set on the command line
func styleFromFlags(opts *options, flags *pflag.FlagSet) stamp.StyleOverrides {
	var style stamp.StyleOverrides
	if flags.Changed("font") {
		style.FontFamily = &opts.font
	}
	if flags.Changed("font-size") {
		style.FontSize = &opts.size
	}
	if flags.Changed("bold") {
		style.Bold = &opts.bold
	}
	if flags.Changed("color") {
		style.ColorHex = &opts.color
	}
	return style
}

// collectValues merges the values file with --set pairs; --set wins
func collectValues(path string, sets []string) (map[string]string, error) {
	values := make(map[string]string)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read values file: %w", err)
		}
		if values, err = parseValues(data); err != nil {
			return nil, fmt.Errorf("failed to parse values file %s: %w", path, err)
		}
	}

	for _, set := range sets {
		name, value, ok := strings.Cut(set, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", set)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}

// parseValues decodes a flat mapping. JSON documents are valid YAML, so one decoder serves both.
func parseValues(data []byte) (map[string]string, error) {
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			values[name] = val
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("value of %q must be a scalar", name)
		default:
			values[name] = fmt.Sprint(val)
		}
	}
	return values, nil
}
