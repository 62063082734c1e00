// Package segment splits one generated text blob into discrete list items.
package segment

import (
	"regexp"
	"strings"
)

var numberedItemPattern = regexp.MustCompile(`\d+\.`)

// Split breaks raw generated text into individual items using a cascade of
// increasingly generic delimiters. More specific patterns are tried first so
// that, e.g., dash bullets inside a numbered item do not get mis-split.
// If fewer than two items survive, the heuristic likely found no real
// structure and the whole text is returned as a single item, unmodified.
//
// Bullet splitting keys on the newline, not the marker, so text that opens
// with a bullet keeps that first marker:
//
//	Split("- a\n- b") // ["- a", "b"]
func Split(raw string) []string {
	var parts []string
	switch {
	case strings.Contains(raw, "1."):
		parts = numberedItemPattern.Split(raw, -1)
	case strings.Contains(raw, "\n-"):
		parts = strings.Split(raw, "\n-")
	case strings.Contains(raw, "\n•"):
		parts = strings.Split(raw, "\n•")
	default:
		parts = strings.Split(raw, "\n")
	}

	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			items = append(items, p)
		}
	}

	if len(items) < 2 {
		return []string{raw}
	}
	return items
}
