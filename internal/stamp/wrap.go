package stamp

import (
	"math"
	"strings"

	"github.com/a3tai/mcp-form-filler/internal/form"
)

// ToRenderSpace maps an authoring point (origin top-left, Y down) into render space
// (origin bottom-left, Y up). Every coordinate passes through here before it is drawn.
func ToRenderSpace(p form.Point, pageHeight float64) form.Point {
	return form.Point{X: p.X, Y: pageHeight - p.Y}
}

// Measurer reports the rendered width of text in points
type Measurer interface {
	StringWidth(text string, font Font) float64
}

// Wrap splits text greedily into lines no wider than maxWidth. A word wider than maxWidth
// gets a line to itself; words are never split.
func Wrap(text string, font Font, maxWidth float64, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := make([]string, 0, 4)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if m.StringWidth(candidate, font) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// Unbounded is returned by MaxLines when the box has no usable height
const Unbounded = -1

// MaxLines returns how many lines of the given spacing fit in a box of boxHeight, counting
// the first baseline at the top edge.
func MaxLines(boxHeight, lineSpacing float64) int {
	if boxHeight <= 0 || lineSpacing <= 0 {
		return Unbounded
	}
	return int(math.Floor(boxHeight/lineSpacing)) + 1
}

// Truncate drops lines beyond limit and returns how many were dropped
func Truncate(lines []string, limit int) ([]string, int) {
	if limit == Unbounded || len(lines) <= limit {
		return lines, 0
	}
	return lines[:limit], len(lines) - limit
}
