package form

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// CatalogEntry locates one issuer's form document and its coordinates file
type CatalogEntry struct {
	Issuer          string   `json:"issuer"`
	FormName        string   `json:"form_name"`
	Description     string   `json:"description,omitempty"`
	Aliases         []string `json:"aliases,omitempty"`
	DocumentPath    string   `json:"document_path"`
	CoordinatesPath string   `json:"coordinates_path"`
}

// Matches reports whether name equals the form name or one of its aliases, ignoring case
func (e CatalogEntry) Matches(name string) bool {
	name = strings.TrimSpace(name)
	if strings.EqualFold(e.FormName, name) {
		return true
	}
	for _, alias := range e.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

type catalogFile struct {
	Issuer string      `json:"issuer" yaml:"issuer"`
	Forms  []entryFile `json:"forms" yaml:"forms"`
}

type entryFile struct {
	FormName        string   `json:"form_name" yaml:"form_name"`
	Description     string   `json:"description" yaml:"description"`
	Aliases         []string `json:"aliases" yaml:"aliases"`
	DocumentPath    string   `json:"document_path" yaml:"document_path"`
	CoordinatesPath string   `json:"coordinates_path" yaml:"coordinates_path"`
}

// Catalog indexes the forms known to the filler. It is read-only after loading.
type Catalog struct {
	entries []CatalogEntry
}

// LoadCatalogFile reads a catalog file. Relative document and coordinates paths are resolved
// against the catalog file's directory.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.NotFound("load catalog", "cannot open catalog %s", path).Wrap(err)
	}
	defer f.Close()
	return LoadCatalog(f, path, filepath.Dir(path))
}

// LoadCatalog parses a JSON or YAML catalog. baseDir anchors relative paths; an empty baseDir
// leaves them untouched.
func LoadCatalog(r io.Reader, source, baseDir string) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ferrors.Config(ferrors.ReasonParse, "load catalog",
			fmt.Sprintf("cannot read %s", source)).Wrap(err)
	}

	var raw []catalogFile
	if err := decode(data, &raw); err != nil {
		return nil, ferrors.Config(ferrors.ReasonParse, "load catalog", fmt.Sprintf("parse %s: %v", source, err))
	}

	c := &Catalog{}
	seen := make(map[string]bool)
	for _, issuer := range raw {
		for _, ef := range issuer.Forms {
			key := issuer.Issuer + "\x00" + ef.FormName
			if seen[key] {
				return nil, ferrors.Config(ferrors.ReasonParse, "load catalog",
					fmt.Sprintf("%s lists %q for issuer %q twice", source, ef.FormName, issuer.Issuer))
			}
			seen[key] = true

			c.entries = append(c.entries, CatalogEntry{
				Issuer:          issuer.Issuer,
				FormName:        ef.FormName,
				Description:     ef.Description,
				Aliases:         append([]string(nil), ef.Aliases...),
				DocumentPath:    resolve(baseDir, ef.DocumentPath),
				CoordinatesPath: resolve(baseDir, ef.CoordinatesPath),
			})
		}
	}
	return c, nil
}

func resolve(baseDir, path string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Entries returns every entry in catalog order
func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Issuers returns the distinct issuers, sorted
func (c *Catalog) Issuers() []string {
	set := make(map[string]bool)
	for _, e := range c.entries {
		set[e.Issuer] = true
	}
	out := make([]string, 0, len(set))
	for issuer := range set {
		out = append(out, issuer)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the entry for an exact issuer and form name
func (c *Catalog) Lookup(issuer, formName string) (CatalogEntry, error) {
	for _, e := range c.entries {
		if e.Issuer == issuer && e.FormName == formName {
			return e, nil
		}
	}
	return CatalogEntry{}, ferrors.NotFound("catalog lookup", "form %q of issuer %q not in catalog", formName, issuer)
}

// Find resolves a form name or alias, optionally restricted to one issuer. A name matching
// entries of several issuers is ambiguous unless issuer is given.
func (c *Catalog) Find(issuer, name string) (CatalogEntry, error) {
	var matches []CatalogEntry
	for _, e := range c.entries {
		if issuer != "" && !strings.EqualFold(e.Issuer, issuer) {
			continue
		}
		if e.Matches(name) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return CatalogEntry{}, ferrors.NotFound("catalog find", "no form matches %q", name)
	case 1:
		return matches[0], nil
	default:
		issuers := make([]string, len(matches))
		for i, m := range matches {
			issuers[i] = m.Issuer
		}
		return CatalogEntry{}, ferrors.Config(ferrors.ReasonAmbiguous, "catalog find",
			fmt.Sprintf("%q matches forms of several issuers: %s", name, strings.Join(issuers, ", ")))
	}
}

// ByIssuer groups entries by issuer, preserving catalog order within each group
func (c *Catalog) ByIssuer() map[string][]CatalogEntry {
	out := make(map[string][]CatalogEntry)
	for _, e := range c.entries {
		out[e.Issuer] = append(out[e.Issuer], e)
	}
	return out
}
