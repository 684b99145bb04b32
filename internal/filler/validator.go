package filler

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-form-filler/internal/stamp"
	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

// Validator checks that a source document can be filled before any work is done
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator that rejects files larger than maxFileSize bytes
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// ValidateSource returns a DocumentError unless path names a readable, non-empty PDF with at
// least one page.
func (v *Validator) ValidateSource(path string) (os.FileInfo, error) {
	const op = "validate source"

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ferrors.Document(op, fmt.Sprintf("file does not exist: %s", path), nil)
	}
	if err != nil {
		return nil, ferrors.Document(op, "cannot access file", err)
	}
	if info.IsDir() {
		return nil, ferrors.Document(op, fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}
	if !strings.EqualFold(extension(path), ".pdf") {
		return nil, ferrors.Document(op, fmt.Sprintf("file is not a PDF: %s", path), nil)
	}
	if info.Size() == 0 {
		return nil, ferrors.Document(op, fmt.Sprintf("file is empty: %s", path), nil)
	}
	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return nil, ferrors.Document(op, fmt.Sprintf("file too large: %d bytes (max: %d bytes)",
			info.Size(), v.maxFileSize), nil)
	}

	if err := openPDF(path, func(r *pdf.Reader) error {
		if r.NumPage() == 0 {
			return fmt.Errorf("document has no pages")
		}
		return nil
	}); err != nil {
		return nil, ferrors.Document(op, "invalid PDF file", err)
	}
	return info, nil
}

// openPDF opens path and hands the reader to fn. Parser panics on malformed input are turned
// into errors.
func openPDF(path string, fn func(*pdf.Reader) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(r)
}

// ReadPages extracts the plain text of every page of path
func (v *Validator) ReadPages(path string) ([]PageText, error) {
	var pages []PageText
	err := openPDF(path, func(r *pdf.Reader) error {
		pages = make([]PageText, 0, r.NumPage())
		for n := 1; n <= r.NumPage(); n++ {
			p := r.Page(n)
			text := ""
			if !p.V.IsNull() {
				if content, err := p.GetPlainText(nil); err == nil {
					text = content
				}
			}
			pages = append(pages, PageText{Page: n, Text: text})
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.Document("read pages", "cannot read document text", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.Document("read pages", "cannot open document", err)
	}
	defer f.Close()
	stamped, err := stamp.OverlayText(f)
	if err != nil {
		return nil, ferrors.Document("read pages", "cannot read stamped text", err)
	}
	for i := range pages {
		if i < len(stamped) {
			pages[i].Stamped = stamped[i]
		}
	}
	return pages, nil
}
