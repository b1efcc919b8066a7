// Package ooxml is a non-validating token scanner for the handful of OOXML
// tag shapes that carry user-visible text: text runs, CDATA, slide shapes,
// picture references and package relationships.
//
// Nothing here returns an error. Unexpected or malformed markup is simply
// not matched.
package ooxml

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	// runPattern matches <a:t>, <w:t>, <t> (any prefix) with text-only
	// bodies, and CDATA sections, in document order.
	runPattern = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>|<(?:\w+:)?t(?:\s[^>]*)?>([^<]*)</(?:\w+:)?t>`)

	shapePattern       = regexp.MustCompile(`(?s)<p:sp\b.*?</p:sp>`)
	placeholderPattern = regexp.MustCompile(`<p:ph\b[^>]*>`)
	picturePattern     = regexp.MustCompile(`(?s)<p:pic\b.*?</p:pic>|<w:drawing\b.*?</w:drawing>`)
	relPattern         = regexp.MustCompile(`<Relationship\b[^>]*>`)
	attrPattern        = regexp.MustCompile(`([\w:]+)\s*=\s*"([^"]*)"`)
)

// Runs returns every non-blank text run in document order, entity-decoded
// and NFC-normalized.
func Runs(fragment string) []string {
	var runs []string
	for _, m := range runPattern.FindAllStringSubmatch(fragment, -1) {
		var text string
		if m[1] != "" {
			text = norm.NFC.String(m[1])
		} else {
			text = decode(m[2])
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		runs = append(runs, text)
	}
	return runs
}

// Text joins all runs of fragment with single spaces.
func Text(fragment string) string {
	return strings.Join(Runs(fragment), " ")
}

// Shape is one <p:sp> block of a slide.
type Shape struct {
	// Placeholder is the placeholder role ("title", "ctrTitle", "body",
	// "sldNum", ...). Empty for free shapes and untyped placeholders.
	Placeholder string
	Text        string
}

// Shapes returns the text-bearing shapes of a slide or notes fragment.
func Shapes(fragment string) []Shape {
	var shapes []Shape
	for _, block := range shapePattern.FindAllString(fragment, -1) {
		s := Shape{Text: Text(block)}
		if ph := placeholderPattern.FindString(block); ph != "" {
			s.Placeholder = attrs(ph)["type"]
		}
		shapes = append(shapes, s)
	}
	return shapes
}

// notesChrome lists placeholder roles of a notes page that are not notes.
var notesChrome = map[string]bool{
	"sldNum": true,
	"sldImg": true,
	"hdr":    true,
	"ftr":    true,
	"dt":     true,
}

// NotesText returns the speaker notes of a notes-slide fragment, leaving out
// slide numbers, headers, footers and dates.
func NotesText(fragment string) string {
	shapes := Shapes(fragment)
	if len(shapes) == 0 {
		return Text(fragment)
	}
	var parts []string
	for _, s := range shapes {
		if notesChrome[s.Placeholder] || s.Text == "" {
			continue
		}
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// Picture is an embedded image reference found in slide or body markup.
type Picture struct {
	RelID string
	Alt   string
}

// Pictures returns picture references (r:embed) with their alt text (descr).
func Pictures(fragment string) []Picture {
	var pics []Picture
	for _, block := range picturePattern.FindAllString(fragment, -1) {
		var p Picture
		for _, tag := range tagPattern.FindAllString(block, -1) {
			a := attrs(tag)
			if v, ok := a["r:embed"]; ok && p.RelID == "" {
				p.RelID = v
			}
			if v, ok := a["descr"]; ok && p.Alt == "" {
				p.Alt = strings.TrimSpace(v)
			}
		}
		if p.RelID != "" {
			pics = append(pics, p)
		}
	}
	return pics
}

var tagPattern = regexp.MustCompile(`<[\w:]+\b[^>]*>`)

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID     string
	Type   string
	Target string
}

// Relationships indexes the entries of a .rels part by Id.
func Relationships(fragment string) map[string]Relationship {
	rels := make(map[string]Relationship)
	for _, tag := range relPattern.FindAllString(fragment, -1) {
		a := attrs(tag)
		id := a["Id"]
		if id == "" {
			continue
		}
		rels[id] = Relationship{ID: id, Type: a["Type"], Target: a["Target"]}
	}
	return rels
}

// RelsPath returns the relationships part of a package part:
// "ppt/slides/slide1.xml" -> "ppt/slides/_rels/slide1.xml.rels".
func RelsPath(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// ResolveTarget resolves a relationship target against its source part.
// Absolute targets ("/ppt/media/a.png") are package-rooted.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(source), target)
}

// TagValue returns the decoded text of the first <name>...</name> element,
// name including its prefix ("dc:title"). Empty when absent.
func TagValue(fragment, name string) string {
	re := regexp.MustCompile(`(?s)<` + regexp.QuoteMeta(name) + `(?:\s[^>]*)?>(.*?)</` + regexp.QuoteMeta(name) + `>`)
	m := re.FindStringSubmatch(fragment)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(decode(m[1]))
}

func attrs(tag string) map[string]string {
	out := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(tag, -1) {
		out[m[1]] = decode(m[2])
	}
	return out
}

func decode(s string) string {
	if strings.Contains(s, "&") {
		s = html.UnescapeString(s)
	}
	return norm.NFC.String(s)
}
