package stamp

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
)

// maxFormDepth bounds how deeply nested form XObjects are followed
const maxFormDepth = 8

// PageContent returns the decoded content stream of page pageNr
func PageContent(rs io.ReadSeeker, pageNr int) ([]byte, error) {
	ctx, err := readContext(rs)
	if err != nil {
		return nil, err
	}
	d, _, _, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", pageNr, err)
	}
	content, err := ctx.PageContent(d, pageNr)
	if err == model.ErrNoContent {
		return nil, nil
	}
	return content, err
}

// FormXObjects returns the decoded content of every form XObject reachable from the resources
// of page pageNr, keyed by resource name. Nested forms are keyed by their path, e.g. "Fm0/Fm1".
func FormXObjects(rs io.ReadSeeker, pageNr int) (map[string][]byte, error) {
	ctx, err := readContext(rs)
	if err != nil {
		return nil, err
	}
	return pageForms(ctx, pageNr)
}

// OverlayText returns, per page, the text shown by the form XObjects painted on that page.
// Stamped overlays live in form XObjects, which page-level text extraction does not visit.
func OverlayText(rs io.ReadSeeker) ([]string, error) {
	ctx, err := readContext(rs)
	if err != nil {
		return nil, err
	}

	texts := make([]string, ctx.PageCount)
	for p := 1; p <= ctx.PageCount; p++ {
		forms, err := pageForms(ctx, p)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(forms))
		for name := range forms {
			names = append(names, name)
		}
		sort.Strings(names)

		var lines []string
		for _, name := range names {
			lines = append(lines, ShownText(forms[name])...)
		}
		texts[p-1] = strings.Join(lines, "\n")
	}
	return texts, nil
}

func readContext(rs io.ReadSeeker) (*model.Context, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	ctx, err := api.ReadContext(rs, pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

func pageForms(ctx *model.Context, pageNr int) (map[string][]byte, error) {
	_, _, inh, err := ctx.PageDict(pageNr, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", pageNr, err)
	}
	forms := make(map[string][]byte)
	if inh == nil || inh.Resources == nil {
		return forms, nil
	}
	if err := collectForms(ctx, inh.Resources, "", 0, forms); err != nil {
		return nil, err
	}
	return forms, nil
}

func collectForms(ctx *model.Context, resources types.Dict, prefix string, depth int, out map[string][]byte) error {
	if depth >= maxFormDepth {
		return nil
	}
	obj, found := resources.Find("XObject")
	if !found {
		return nil
	}
	xobjects, err := ctx.DereferenceDict(obj)
	if err != nil || xobjects == nil {
		return err
	}

	for name, ref := range xobjects {
		sd, _, err := ctx.DereferenceStreamDict(ref)
		if err != nil {
			return fmt.Errorf("failed to read XObject %s: %w", name, err)
		}
		if sd == nil {
			continue
		}
		if subtype := sd.Dict.Subtype(); subtype == nil || *subtype != "Form" {
			continue
		}
		if err := sd.Decode(); err != nil {
			return fmt.Errorf("failed to decode form %s: %w", name, err)
		}

		key := prefix + name
		out[key] = sd.Content

		if obj, found := sd.Dict.Find("Resources"); found {
			nested, err := ctx.DereferenceDict(obj)
			if err != nil {
				return err
			}
			if nested != nil {
				if err := collectForms(ctx, nested, key+"/", depth+1, out); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ShownText returns the strings shown by the text operators of a content stream. Strings
// placed on the same baseline are joined with a space; each new baseline starts a new line.
func ShownText(content []byte) []string {
	s := &contentScanner{data: content}

	var (
		lines    []string
		operands []token
		y        float64
		lastY    = math.NaN()
	)
	show := func(text string) {
		if text == "" {
			return
		}
		if len(lines) > 0 && math.Abs(y-lastY) < 0.5 {
			lines[len(lines)-1] += " " + text
		} else {
			lines = append(lines, text)
		}
		lastY = y
	}

	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		if tok.kind != tokenOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Td", "TD":
			if n := len(operands); n >= 2 {
				y += operands[n-1].number()
			}
		case "Tm":
			if n := len(operands); n >= 6 {
				y = operands[n-1].number()
			}
		case "BT":
			y = 0
		case "T*":
			y -= 1
		case "Tj", "'", "\"":
			if n := len(operands); n > 0 && operands[n-1].kind == tokenString {
				show(operands[n-1].text)
			}
		case "TJ":
			if n := len(operands); n > 0 && operands[n-1].kind == tokenArray {
				show(operands[n-1].text)
			}
		}
		operands = operands[:0]
	}
	return lines
}

type tokenKind int

const (
	tokenOperator tokenKind = iota
	tokenNumber
	tokenString
	tokenArray
	tokenOther
)

type token struct {
	kind tokenKind
	text string
}

func (t token) number() float64 {
	f, _ := strconv.ParseFloat(t.text, 64)
	return f
}

// contentScanner tokenizes the subset of content stream syntax needed to recover shown text
type contentScanner struct {
	data []byte
	pos  int
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (s *contentScanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isPDFSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *contentScanner) next() (token, bool) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return token{}, false
	}

	switch c := s.data[s.pos]; {
	case c == '(':
		return token{kind: tokenString, text: decodePDFString(s.literal())}, true
	case c == '<' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '<':
		s.pos += 2
		return token{kind: tokenOther, text: "<<"}, true
	case c == '>' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '>':
		s.pos += 2
		return token{kind: tokenOther, text: ">>"}, true
	case c == '<':
		return token{kind: tokenString, text: decodePDFString(s.hex())}, true
	case c == '[':
		s.pos++
		return token{kind: tokenArray, text: s.array()}, true
	case c == '/':
		s.pos++
		return token{kind: tokenOther, text: "/" + s.word()}, true
	case isPDFDelimiter(c):
		s.pos++
		return token{kind: tokenOther, text: string(c)}, true
	default:
		w := s.word()
		if _, err := strconv.ParseFloat(w, 64); err == nil {
			return token{kind: tokenNumber, text: w}, true
		}
		return token{kind: tokenOperator, text: w}, true
	}
}

func (s *contentScanner) word() string {
	start := s.pos
	for s.pos < len(s.data) && !isPDFSpace(s.data[s.pos]) && !isPDFDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// array concatenates the strings of a TJ array; kerning numbers are dropped
func (s *contentScanner) array() string {
	var b strings.Builder
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return b.String()
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return b.String()
		}
		tok, ok := s.next()
		if !ok {
			return b.String()
		}
		if tok.kind == tokenString {
			b.WriteString(tok.text)
		}
	}
}

// literal reads a (...) string, honoring nesting and escapes
func (s *contentScanner) literal() []byte {
	s.pos++
	var out []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			if s.pos >= len(s.data) {
				return out
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
						v = v*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// hex reads a <...> string
func (s *contentScanner) hex() []byte {
	s.pos++
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isPDFSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			return out
		}
		out = append(out, byte(v))
	}
	return out
}

// decodePDFString maps core font bytes back to UTF-8
func decodePDFString(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(charmap.Windows1252.DecodeByte(c))
	}
	return sb.String()
}

// Unencodable returns the distinct runes of text that the core fonts cannot draw
func Unencodable(text string) []rune {
	var out []rune
	seen := make(map[rune]bool)
	for _, r := range text {
		if _, ok := charmap.Windows1252.EncodeRune(r); ok || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
