package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// truncate shortens s to at most width display cells, ending in an ellipsis
// when anything was cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}
	limit := width - uniseg.StringWidth(ellipsis)
	var (
		out   []byte
		used  int
		state = -1
		rest  = s
	)
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > limit {
			break
		}
		out = append(out, cluster...)
		used += w
	}
	return string(out) + ellipsis
}

// printLine draws s on row y starting at x, clipped to width cells, and pads
// the rest of the row with style. It prints text verbatim; tview style tags
// are not interpreted.
func printLine(screen tcell.Screen, x, y, width int, s string, style tcell.Style) {
	s = truncate(s, width)
	col := 0
	state := -1
	for len(s) > 0 && col < width {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		if w == 0 {
			continue
		}
		runes := []rune(cluster)
		screen.SetContent(x+col, y, runes[0], runes[1:], style)
		col += w
	}
	for ; col < width; col++ {
		screen.SetContent(x+col, y, ' ', nil, style)
	}
}
