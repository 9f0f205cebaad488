package sdr

import "github.com/rivo/uniseg"

// Preview shortens text to at most n grapheme clusters, appending an
// ellipsis when anything was cut. Used for log fields.
func Preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	g := uniseg.NewGraphemes(text)
	count := 0
	end := 0
	for g.Next() {
		if count == n {
			return text[:end] + "…"
		}
		_, end = g.Positions()
		count++
	}
	return text
}
