package ooxml

import (
	"strconv"
	"unicode/utf8"
)

// maxHeuristicTitle is the exclusive rune-length bound for a text run to be
// taken as a slide title when no title placeholder exists.
const maxHeuristicTitle = 150

// SlideTitle locates the title of a slide fragment: the text of a title or
// centered-title placeholder, else the first run shorter than 150 runes.
// The second result is false when neither exists.
func SlideTitle(fragment string) (string, bool) {
	for _, s := range Shapes(fragment) {
		if (s.Placeholder == "title" || s.Placeholder == "ctrTitle") && s.Text != "" {
			return s.Text, true
		}
	}
	for _, run := range Runs(fragment) {
		if utf8.RuneCountInString(run) < maxHeuristicTitle {
			return run, true
		}
	}
	return "", false
}

// SlideLabel is the fallback title of slide n.
func SlideLabel(n int) string {
	return "Slide " + strconv.Itoa(n)
}
