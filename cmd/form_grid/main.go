package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-form-filler/internal/config"
	"github.com/a3tai/mcp-form-filler/internal/filler"
	"github.com/a3tai/mcp-form-filler/internal/grid"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("form_grid", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	output := flags.StringP("output", "o", "", "Output PDF (default <source>"+filler.GridSuffix+".pdf)")
	spacing := flags.Float64("spacing", grid.DefaultSpacing, "Grid line spacing in points")
	major := flags.Float64("major", grid.DefaultMajorSpacing, "Labelled grid line spacing in points")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: form_grid [flags] SOURCE.pdf\n\n")
		fmt.Fprintf(stderr, "Writes a copy of SOURCE with a labelled coordinate grid on every page.\n\nFlags:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: exactly one source PDF required\n\n")
		flags.Usage()
		return 2
	}

	source, err := filepath.Abs(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// The source directory bounds every path the tool touches
	svc, err := filler.NewService(filler.Options{
		Directory:   filepath.Dir(source),
		MaxFileSize: config.DefaultMaxFileSize,
		CacheSize:   1,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result, err := svc.Grid(filler.GridRequest{
		SourcePath:   source,
		OutputPath:   *output,
		Spacing:      *spacing,
		MajorSpacing: *major,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Grid written to %s\n", result.OutputPath)
	for i, p := range result.Pages {
		fmt.Fprintf(stdout, "  page %d: %.2f x %.2f pts\n", i+1, p.Width, p.Height)
	}
	return 0
}
