package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// glyphAdvance approximates the horizontal advance of one terminal cell of
// text in pixels, relative to the font size. Good enough for budget-based
// wrapping; renderers that know their real metrics can still re-measure.
const glyphAdvance = 0.6

// TextWidthPx estimates the rendered pixel width of s at the given font
// size. Wide runes (CJK) count as two cells via go-runewidth.
func TextWidthPx(s string, fontPx float64) float64 {
	return float64(runewidth.StringWidth(s)) * fontPx * glyphAdvance
}

// WrapLabel splits a label into lines by greedily packing whitespace
// delimited words until the next word would push the line past budgetPx.
// A single word wider than the budget gets a line of its own rather than
// being broken mid-word.
func WrapLabel(text string, budgetPx, fontPx float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if TextWidthPx(candidate, fontPx) > budgetPx {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

// LineOffsetPx returns the vertical offset of line k in a wrapped label,
// using the configured line-height multiple.
func (c Config) LineOffsetPx(k int) float64 {
	return float64(k) * c.FontSizePx * c.LabelLineHeight
}
