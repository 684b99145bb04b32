// Package filler is the entry point for filling forms. It locates form definitions and source
// documents through the catalog, confines every path to the forms directory, and writes
// output documents atomically.
package filler

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-form-filler/internal/cache"
	"github.com/a3tai/mcp-form-filler/internal/form"
	"github.com/a3tai/mcp-form-filler/internal/grid"
	"github.com/a3tai/mcp-form-filler/internal/security"
	"github.com/a3tai/mcp-form-filler/internal/stamp"
	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// Default output suffixes
const (
	DefaultFilledSuffix = "_filled"
	GridSuffix          = "_with_coordinates"
)

// Options configures a Service
type Options struct {
	// Directory confines every document, coordinates and output path
	Directory string
	// CatalogPath is the forms catalog. Optional when callers always pass explicit paths.
	CatalogPath  string
	OutputSuffix string
	MaxFileSize  int64
	CacheSize    int
	// Style is the server-wide default, overridden per request
	Style  stamp.StyleOverrides
	Logger *log.Logger
}

// Service fills, lists and calibrates forms. It is safe for concurrent use.
type Service struct {
	opts        Options
	guard       *security.PathGuard
	validator   *Validator
	engine      *stamp.Engine
	definitions *cache.LRU[string, *form.FormDefinition]
	catalogs    *cache.LRU[string, *form.Catalog]
	logger      *log.Logger
}

// NewService creates a service rooted at opts.Directory
func NewService(opts Options) (*Service, error) {
	guard, err := security.NewPathGuard(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path guard: %w", err)
	}
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = DefaultFilledSuffix
	}
	if _, err := stamp.GlobalStyle(opts.Style); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Service{
		opts:        opts,
		guard:       guard,
		validator:   NewValidator(opts.MaxFileSize),
		engine:      stamp.NewEngine(stamp.WithLogger(logger)),
		definitions: cache.New[string, *form.FormDefinition](opts.CacheSize),
		catalogs:    cache.New[string, *form.Catalog](4),
		logger:      logger,
	}, nil
}

// Directory returns the absolute forms directory
func (s *Service) Directory() string {
	return s.guard.Root()
}

// CacheStats reports usage of the form definition cache
func (s *Service) CacheStats() cache.Stats {
	return s.definitions.Stats()
}

// Fill renders req.Values onto the first page of the form's source document and writes the
// result. Nothing is written unless the whole fill succeeds.
func (s *Service) Fill(req FillRequest) (*FillResult, error) {
	def, entry, err := s.resolveForm(req.Issuer, req.FormName, req.CoordinatesPath)
	if err != nil {
		return nil, err
	}

	sourcePath := req.SourcePath
	if sourcePath == "" {
		if entry == nil {
			if entry, err = s.findEntry(req.Issuer, req.FormName); err != nil {
				return nil, err
			}
		}
		sourcePath = entry.DocumentPath
	}
	source, err := s.resolveSource(sourcePath)
	if err != nil {
		return nil, err
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = DerivedPath(source, s.opts.OutputSuffix)
	}
	output, err := s.resolveOutput(source, outputPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, ferrors.Document("fill", "cannot open source document", err)
	}
	defer f.Close()

	var report *stamp.FillReport
	err = writeFile(output, func(w io.Writer) error {
		var fillErr error
		report, fillErr = s.engine.Fill(f, w, def, req.Values, s.opts.Style.Merge(req.Style))
		return fillErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("filled %s into %s", def.FormName, output)
	return &FillResult{
		OutputPath:     output,
		SourcePath:     source,
		FormName:       def.FormName,
		PageCount:      report.PageCount,
		FieldsRendered: report.FieldsRendered,
		Unfilled:       def.Unfilled(req.Values),
		Diagnostics:    report.Diagnostics,
		Style:          report.Style,
	}, nil
}

// ListForms lists the catalog, optionally restricted to one issuer
func (s *Service) ListForms(req ListFormsRequest) (*ListFormsResult, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}

	// Several catalog entries usually share one coordinates file
	fieldCounts := make(map[string]map[string]int)
	definedForms := func(path string) map[string]int {
		if counts, ok := fieldCounts[path]; ok {
			return counts
		}
		counts := make(map[string]int)
		defs, err := form.LoadDefinitionsFile(path)
		if err != nil {
			s.logger.Printf("list forms: %v", err)
		}
		for _, d := range defs {
			counts[d.FormName] = len(d.Fields)
		}
		fieldCounts[path] = counts
		return counts
	}

	result := &ListFormsResult{Forms: []FormInfo{}, Issuers: catalog.Issuers()}
	for _, e := range catalog.Entries() {
		if req.Issuer != "" && !strings.EqualFold(e.Issuer, req.Issuer) {
			continue
		}
		count, defined := definedForms(e.CoordinatesPath)[e.FormName]
		result.Forms = append(result.Forms, FormInfo{
			Issuer:          e.Issuer,
			FormName:        e.FormName,
			Description:     e.Description,
			Aliases:         e.Aliases,
			DocumentPath:    e.DocumentPath,
			CoordinatesPath: e.CoordinatesPath,
			FieldCount:      count,
			Available:       defined && fileExists(e.DocumentPath),
		})
	}
	result.TotalCount = len(result.Forms)
	return result, nil
}

// FormFields lists the fields a caller can supply values for
func (s *Service) FormFields(req FormFieldsRequest) (*FormFieldsResult, error) {
	def, entry, err := s.resolveForm(req.Issuer, req.FormName, req.CoordinatesPath)
	if err != nil {
		return nil, err
	}

	result := &FormFieldsResult{FormName: def.FormName, Fields: make([]FieldInfo, 0, len(def.Fields))}
	if entry != nil {
		result.Issuer = entry.Issuer
	}
	for _, f := range def.Fields {
		info := FieldInfo{Name: f.Name, Kind: f.Kind.String(), Value: f.Value}
		if f.Kind == form.KindSpacedText && f.Start != nil && f.End != nil && f.Spacing > 0 {
			info.MaxChars = int(math.Abs(f.End.X-f.Start.X)/f.Spacing) + 1
		}
		result.Fields = append(result.Fields, info)
	}
	result.TotalCount = len(result.Fields)
	return result, nil
}

// Grid writes a copy of a document with a calibration grid on every page
func (s *Service) Grid(req GridRequest) (*GridResult, error) {
	source, err := s.resolveSource(req.SourcePath)
	if err != nil {
		return nil, err
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = DerivedPath(source, GridSuffix)
	}
	output, err := s.resolveOutput(source, outputPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, ferrors.Document("grid", "cannot open source document", err)
	}
	defer f.Close()

	var res *grid.Result
	err = writeFile(output, func(w io.Writer) error {
		var gridErr error
		res, gridErr = grid.Render(f, w, grid.Options{Spacing: req.Spacing, MajorSpacing: req.MajorSpacing})
		return gridErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("calibration grid for %s written to %s", source, output)
	return &GridResult{OutputPath: output, PageCount: res.PageCount, Pages: res.Pages, Options: res.Options}, nil
}

// Inspect extracts the text of every page of a document
func (s *Service) Inspect(req InspectRequest) (*InspectResult, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, ferrors.Config(ferrors.ReasonParse, "inspect", "path is required")
	}
	path, err := s.guard.Resolve(req.Path)
	if err != nil {
		return nil, ferrors.Config(ferrors.ReasonNone, "inspect", "path rejected").Wrap(err)
	}
	info, err := s.validator.ValidateSource(path)
	if err != nil {
		return nil, err
	}
	pages, err := s.validator.ReadPages(path)
	if err != nil {
		return nil, err
	}
	return &InspectResult{Path: path, PageCount: len(pages), Size: info.Size(), Pages: pages}, nil
}

// resolveForm loads the definition for a form. With an explicit coordinates path the form name
// must match exactly; otherwise the name or alias is looked up in the catalog.
func (s *Service) resolveForm(issuer, name, coordinatesPath string) (*form.FormDefinition, *form.CatalogEntry, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, ferrors.Config(ferrors.ReasonParse, "resolve form", "form_name is required")
	}

	var entry *form.CatalogEntry
	formName := name
	if coordinatesPath == "" {
		e, err := s.findEntry(issuer, name)
		if err != nil {
			return nil, nil, err
		}
		entry = e
		coordinatesPath = e.CoordinatesPath
		formName = e.FormName
	}

	def, err := s.definition(coordinatesPath, formName)
	if err != nil {
		return nil, nil, err
	}
	return def, entry, nil
}

func (s *Service) findEntry(issuer, name string) (*form.CatalogEntry, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}
	e, err := catalog.Find(issuer, name)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// definition returns the cached, read-only definition. Entries are keyed by modification time
// so edited coordinates files are picked up without a restart.
func (s *Service) definition(coordinatesPath, formName string) (*form.FormDefinition, error) {
	path, err := s.guard.Resolve(coordinatesPath)
	if err != nil {
		return nil, ferrors.Config(ferrors.ReasonNone, "load definition", "coordinates path rejected").Wrap(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, ferrors.NotFound("load definition", "coordinates file %s", path).Wrap(err)
	}

	key := fmt.Sprintf("%s|%d|%s", path, info.ModTime().UnixNano(), formName)
	return s.definitions.GetOrLoad(key, func() (*form.FormDefinition, error) {
		s.logger.Printf("loading form %q from %s", formName, path)
		return form.LoadDefinitionFile(path, formName)
	})
}

func (s *Service) catalog() (*form.Catalog, error) {
	if s.opts.CatalogPath == "" {
		return nil, ferrors.NotFound("load catalog", "no forms catalog configured")
	}
	path, err := filepath.Abs(s.opts.CatalogPath)
	if err != nil {
		return nil, ferrors.Config(ferrors.ReasonNone, "load catalog", "invalid catalog path").Wrap(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, ferrors.NotFound("load catalog", "catalog file %s", path).Wrap(err)
	}

	key := fmt.Sprintf("%s|%d", path, info.ModTime().UnixNano())
	return s.catalogs.GetOrLoad(key, func() (*form.Catalog, error) {
		return form.LoadCatalogFile(path)
	})
}

func (s *Service) resolveSource(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ferrors.Config(ferrors.ReasonParse, "resolve source", "source path is required")
	}
	abs, err := s.guard.Resolve(path)
	if err != nil {
		return "", ferrors.Config(ferrors.ReasonNone, "resolve source", "source path rejected").Wrap(err)
	}
	if _, err := s.validator.ValidateSource(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (s *Service) resolveOutput(source, path string) (string, error) {
	abs, err := s.guard.Resolve(path)
	if err != nil {
		return "", ferrors.Config(ferrors.ReasonNone, "resolve output", "output path rejected").Wrap(err)
	}
	if abs == source {
		return "", ferrors.Config(ferrors.ReasonNone, "resolve output", "output path must differ from the source document")
	}
	return abs, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
