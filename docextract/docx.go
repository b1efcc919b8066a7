package docextract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"html"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	docxBody     = "word/document.xml"
	docxMediaDir = "word/media/"
)

// extractDocx renders word/document.xml to light markup and splits it at
// headings.
func (e *Extractor) extractDocx(ctx context.Context, j *job) (*ExtractedDocument, error) {
	r, err := e.openContainer(j.buf, FormatDocx)
	if err != nil {
		return nil, err
	}
	props := readProps(r, j.log)

	body, err := r.ReadBytes(docxBody)
	if err != nil {
		return nil, newError(ErrCorruptArchive, FormatDocx, err, "")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	markup := e.policy.Sanitize(renderDocx(body, j.log))
	text := stripMarkup(markup)
	if err := checkContent(FormatDocx, text); err != nil {
		return nil, err
	}
	headings := findHeadings(markup)
	sections := segmentMarkup(markup, headings)

	var firstHeading string
	if len(headings) > 0 {
		firstHeading = headings[0].Text
	}
	title := chooseTitle(props.Title, firstHeading, firstLine(text), fileStem(j.filename), untitledDocument)

	meta := props.Meta
	meta.PageCount = props.Pages
	if meta.PageCount == 0 {
		meta.PageCount = len(sections)
	}

	refs := make(map[string]mediaRef)
	collectRefs(refs, r, docxBody, string(body), 0)
	images := extractImages(ctx, r, docxMediaDir, refs, j.log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return assemble(FormatDocx, title, sections, meta, images), nil
}

// docxPara is an open w:p.
type docxPara struct {
	buf     strings.Builder
	style   string
	outline int // w:outlineLvl + 1, 0 when absent
	listed  bool
}

// docxRenderer turns the WordprocessingML token stream into markup made of
// p, h1-h6, ul/li, table/tr/td, br, strong and em.
type docxRenderer struct {
	out bytes.Buffer

	// paras holds the open paragraphs. Text boxes (w:txbxContent) nest
	// paragraphs inside a paragraph of the body.
	paras  []*docxPara
	inList bool

	inRun  bool
	inRPr  bool
	inText bool
	bold   bool
	italic bool

	fallback int // depth inside mc:Fallback, which repeats mc:Choice
}

// renderDocx renders body to markup. Decoding stops at the first syntax
// error; whatever was rendered up to that point is kept.
func renderDocx(body []byte, log *slog.Logger) string {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel

	var rd docxRenderer
	for {
		tok, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("docextract: document body truncated", "error", err)
			}
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Fallback" || rd.fallback > 0 {
				rd.fallback++
				continue
			}
			rd.start(t)
		case xml.EndElement:
			if rd.fallback > 0 {
				rd.fallback--
				continue
			}
			rd.end(t)
		case xml.CharData:
			if rd.inText {
				rd.writeText(string(t))
			}
		}
	}
	rd.closeList()
	return rd.out.String()
}

func (rd *docxRenderer) start(t xml.StartElement) {
	switch t.Name.Local {
	case "p":
		rd.paras = append(rd.paras, &docxPara{})
	case "pStyle":
		if p := rd.para(); p != nil {
			p.style = attrVal(t, "val")
		}
	case "outlineLvl":
		if n, err := strconv.Atoi(attrVal(t, "val")); err == nil && n >= 0 && n < 6 && rd.para() != nil {
			rd.para().outline = n + 1
		}
	case "numPr":
		if p := rd.para(); p != nil {
			p.listed = true
		}
	case "r":
		rd.inRun = true
		rd.bold, rd.italic = false, false
	case "rPr":
		rd.inRPr = rd.inRun
	case "b":
		if rd.inRPr {
			rd.bold = toggleOn(t)
		}
	case "i":
		if rd.inRPr {
			rd.italic = toggleOn(t)
		}
	case "t":
		rd.inText = rd.inRun
	case "tab":
		if p := rd.para(); p != nil && rd.inRun {
			p.buf.WriteByte('\t')
		}
	case "br", "cr":
		if p := rd.para(); p != nil && rd.inRun {
			p.buf.WriteString("<br>")
		}
	case "tbl":
		rd.closeList()
		rd.out.WriteString("<table>")
	case "tr":
		rd.out.WriteString("<tr>")
	case "tc":
		rd.out.WriteString("<td>")
	}
}

func (rd *docxRenderer) end(t xml.EndElement) {
	switch t.Name.Local {
	case "p":
		if n := len(rd.paras); n > 0 {
			p := rd.paras[n-1]
			rd.paras = rd.paras[:n-1]
			rd.flushParagraph(p)
		}
	case "r":
		rd.inRun = false
	case "rPr":
		rd.inRPr = false
	case "t":
		rd.inText = false
	case "tbl":
		rd.out.WriteString("</table>")
	case "tr":
		rd.out.WriteString("</tr>")
	case "tc":
		rd.out.WriteString("</td>")
	}
}

// para returns the innermost open paragraph, or nil outside paragraphs.
func (rd *docxRenderer) para() *docxPara {
	if len(rd.paras) == 0 {
		return nil
	}
	return rd.paras[len(rd.paras)-1]
}

func (rd *docxRenderer) writeText(s string) {
	p := rd.para()
	if p == nil {
		return
	}
	s = html.EscapeString(s)
	if rd.italic {
		s = "<em>" + s + "</em>"
	}
	if rd.bold {
		s = "<strong>" + s + "</strong>"
	}
	p.buf.WriteString(s)
}

// flushParagraph writes a closed paragraph to the output. A text box
// paragraph is written before the paragraph that anchors it.
func (rd *docxRenderer) flushParagraph(p *docxPara) {
	content := p.buf.String()
	if strings.TrimSpace(strings.ReplaceAll(content, "<br>", "")) == "" {
		return
	}

	level := docxHeadingLevel(p.style)
	if level == 0 {
		level = p.outline
	}
	switch {
	case level > 0:
		rd.closeList()
		tag := "h" + strconv.Itoa(level)
		rd.out.WriteString("<" + tag + ">" + content + "</" + tag + ">")
	case p.listed || isListStyle(p.style):
		if !rd.inList {
			rd.out.WriteString("<ul>")
			rd.inList = true
		}
		rd.out.WriteString("<li>" + content + "</li>")
	default:
		rd.closeList()
		rd.out.WriteString("<p>" + content + "</p>")
	}
}

func (rd *docxRenderer) closeList() {
	if rd.inList {
		rd.out.WriteString("</ul>")
		rd.inList = false
	}
}

func attrVal(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn reads a w:b / w:i toggle: present means on unless val says off.
func toggleOn(t xml.StartElement) bool {
	switch strings.ToLower(attrVal(t, "val")) {
	case "0", "false", "off":
		return false
	}
	return true
}

func isListStyle(style string) bool {
	lower := strings.ToLower(style)
	return strings.HasPrefix(lower, "listbullet") || strings.HasPrefix(lower, "listnumber") || lower == "listparagraph"
}

// docxHeadingLevel extracts the heading level from a paragraph style name.
// e.g. "Heading1" → 1, "Heading2" → 2, "Title" → 1, etc.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(strings.ReplaceAll(style, " ", ""))

	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}

	// "Heading1", "heading1", "Titre1", etc.
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}
