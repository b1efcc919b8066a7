package docextract

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	labelDocumentContent = "Document Content"
	labelIntroduction    = "Introduction"
)

// newMarkupPolicy allows exactly the elements the docx renderer emits.
func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "strong", "em",
		"table", "thead", "tbody", "tr", "td", "th",
	)
	return p
}

// heading is a detected h1-h6 element. Start and End are byte offsets of
// the opening and closing tags in the markup.
type heading struct {
	Level int
	Text  string
	Start int
	End   int
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1,
	atom.H2: 2,
	atom.H3: 3,
	atom.H4: 4,
	atom.H5: 5,
	atom.H6: 6,
}

// findHeadings returns the non-empty headings of markup in document order.
func findHeadings(markup string) []heading {
	z := html.NewTokenizer(strings.NewReader(markup))
	var (
		found   []heading
		current *heading
		text    strings.Builder
		pos     int
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return found
		}
		start := pos
		pos += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			if lvl, ok := headingLevels[atom.Lookup(name)]; ok && current == nil {
				current = &heading{Level: lvl, Start: start}
				text.Reset()
			}
		case html.TextToken:
			if current != nil {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if lvl, ok := headingLevels[atom.Lookup(name)]; ok && current != nil && lvl == current.Level {
				current.End = pos
				current.Text = strings.Join(strings.Fields(text.String()), " ")
				if current.Text != "" {
					found = append(found, *current)
				}
				current = nil
			}
		}
	}
}

// segmentMarkup slices markup at headings. Text before the first heading
// becomes an Introduction section; markup without headings becomes a single
// Document Content section. Page numbers are contiguous from 1.
func segmentMarkup(markup string, headings []heading) []DocumentSection {
	if len(headings) == 0 {
		return []DocumentSection{{
			Title:      labelDocumentContent,
			Content:    stripMarkup(markup),
			PageNumber: 1,
		}}
	}

	var sections []DocumentSection
	if intro := stripMarkup(markup[:headings[0].Start]); intro != "" {
		sections = append(sections, DocumentSection{Title: labelIntroduction, Content: intro})
	}
	for i, h := range headings {
		end := len(markup)
		if i+1 < len(headings) {
			end = headings[i+1].Start
		}
		sections = append(sections, DocumentSection{
			Title:   h.Text,
			Content: stripMarkup(markup[h.End:end]),
		})
	}
	numberSections(sections)
	return sections
}

var (
	trailingBlanks = regexp.MustCompile(`[ \t]+\n`)
	extraNewlines  = regexp.MustCompile(`\n{3,}`)
)

// stripMarkup converts markup to plain text: block and line-break tags
// become newlines, list items become bulleted lines, entities are decoded,
// and runs of three or more newlines collapse to two.
func stripMarkup(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var sb strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Br, atom.P, atom.Div, atom.Tr, atom.Ul, atom.Ol, atom.Table,
				atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				sb.WriteByte('\n')
			case atom.Li:
				sb.WriteString("\n• ")
			case atom.Td, atom.Th:
				sb.WriteByte('\t')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.P, atom.Div, atom.Tr, atom.Ul, atom.Ol, atom.Table,
				atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				sb.WriteByte('\n')
			}
		}
	}
	text := trailingBlanks.ReplaceAllString(sb.String(), "\n")
	text = extraNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
