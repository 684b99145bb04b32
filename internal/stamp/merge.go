package stamp

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// overlayPlacement pins a stamp page 1:1 onto the page's lower-left corner, unrotated and
// fully opaque, so overlay coordinates equal page coordinates.
const overlayPlacement = "scalefactor:1 abs, position:bl, offset:0 0, rotation:0, opacity:1"

// PageSize is the size of one page in points
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentInfo describes the pages of a document
type DocumentInfo struct {
	PageCount int        `json:"page_count"`
	Pages     []PageSize `json:"pages"`
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ReadDocumentInfo reads the page count and page sizes of a PDF
func ReadDocumentInfo(rs io.ReadSeeker) (*DocumentInfo, error) {
	ctx, err := readContext(rs)
	if err != nil {
		return nil, err
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	dims, err := api.PageDims(rs, pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	info := &DocumentInfo{PageCount: ctx.PageCount, Pages: make([]PageSize, len(dims))}
	for i, d := range dims {
		info.Pages[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	if info.PageCount == 0 || len(info.Pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	return info, nil
}

// Stamp composites page overlayPage of overlay on top of each target page of src and writes
// the result to w. Pages not listed in targets are left as they are.
func Stamp(src io.ReadSeeker, w io.Writer, overlay []byte, overlayPage int, targets []int) error {
	tmp, err := os.CreateTemp("", "form-overlay-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(overlay); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write overlay file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write overlay file: %w", err)
	}

	wm, err := pdfcpu.ParsePDFWatermarkDetails(
		tmp.Name()+":"+strconv.Itoa(overlayPage), overlayPlacement, true, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to prepare overlay stamp: %w", err)
	}

	selected := make([]string, len(targets))
	for i, p := range targets {
		selected[i] = strconv.Itoa(p)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := api.AddWatermarks(src, w, selected, wm, pdfConfig()); err != nil {
		return fmt.Errorf("failed to merge overlay: %w", err)
	}
	return nil
}
