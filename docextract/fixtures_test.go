package docextract

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"testing"
)

const (
	nsP = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsW = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

	relNotes = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	relImage = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// zipOf builds an archive with entries written in sorted name order unless
// order is given.
func zipOf(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	if len(order) == 0 {
		for name := range files {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range order {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func titleShape(text string) string {
	return `<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>` +
		`<p:txBody><a:p><a:r><a:rPr lang="en-US"/><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp>`
}

func bodyShape(text string) string {
	return `<p:sp><p:nvSpPr><p:cNvPr id="3" name="Content 2"/><p:cNvSpPr/><p:nvPr><p:ph idx="1"/></p:nvPr></p:nvSpPr>` +
		`<p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp>`
}

func pictureShape(relID, descr string) string {
	return `<p:pic><p:nvPicPr><p:cNvPr id="4" name="Picture 3" descr="` + descr + `"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>` +
		`<p:blipFill><a:blip r:embed="` + relID + `"/></p:blipFill></p:pic>`
}

func slideXML(shapes ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><p:sld ` + nsP + `><p:cSld><p:spTree>` +
		strings.Join(shapes, "") + `</p:spTree></p:cSld></p:sld>`
}

func notesXML(text string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><p:notes ` + nsP + `><p:cSld><p:spTree>` +
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image"/><p:cNvSpPr/><p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr></p:sp>` +
		`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes"/><p:cNvSpPr/><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>` +
		`<p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp>` +
		`<p:sp><p:nvSpPr><p:cNvPr id="4" name="Slide Number"/><p:cNvSpPr/><p:nvPr><p:ph type="sldNum"/></p:nvPr></p:nvSpPr>` +
		`<p:txBody><a:p><a:r><a:t>7</a:t></a:r></a:p></p:txBody></p:sp>` +
		`</p:spTree></p:cSld></p:notes>`
}

type testRel struct{ id, typ, target string }

func relsXML(rels ...testRel) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.typ, r.target)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

// deck returns the entries of a presentation with one titled slide per
// title, each with a one-line body.
func deck(titles ...string) map[string]string {
	files := map[string]string{
		"[Content_Types].xml":  `<Types/>`,
		"ppt/presentation.xml": `<p:presentation ` + nsP + `/>`,
	}
	for i, title := range titles {
		files[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = slideXML(
			titleShape(title),
			bodyShape(fmt.Sprintf("Body text of slide %d", i+1)),
		)
	}
	return files
}

func coreXML(title, creator, created string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + title + `</dc:title><dc:creator>` + creator + `</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + created + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">not a date</dcterms:modified>` +
		`</cp:coreProperties>`
}

// para renders one w:p with an optional paragraph style.
func para(style, text string) string {
	var ppr string
	if style != "" {
		ppr = `<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`
	}
	return `<w:p>` + ppr + `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func documentXML(paras ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document ` + nsW + `><w:body>` +
		strings.Join(paras, "") + `<w:sectPr/></w:body></w:document>`
}

func wordDoc(paras ...string) map[string]string {
	return map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML(paras...),
	}
}

// pngBytes is a PNG signature followed by a marker; the extractor never
// decodes images.
func pngBytes(n int) string {
	return "\x89PNG\r\n\x1a\n" + fmt.Sprintf("image-%d", n)
}

func assertContiguous(t *testing.T, sections []DocumentSection) {
	t.Helper()
	if len(sections) == 0 {
		t.Fatal("no sections")
	}
	for i, s := range sections {
		if s.PageNumber != i+1 {
			t.Fatalf("sections[%d].PageNumber = %d, want %d", i, s.PageNumber, i+1)
		}
	}
}

func assertContentLaw(t *testing.T, doc *ExtractedDocument) {
	t.Helper()
	parts := make([]string, len(doc.Sections))
	for i, s := range doc.Sections {
		parts[i] = "## " + s.Title + "\n\n" + s.Content
	}
	if want := strings.Join(parts, "\n\n---\n\n"); doc.Content != want {
		t.Fatalf("Content does not rebuild from sections:\ngot  %q\nwant %q", doc.Content, want)
	}
}

// compoundFile builds a version 3 OLE2 compound file whose root storage
// holds empty streams with the given names, the shape Office uses for
// password-protected documents.
func compoundFile(t *testing.T, streams ...string) []byte {
	t.Helper()
	const (
		sector     = 512
		entrySize  = 128
		freeSect   = 0xFFFFFFFF
		endOfChain = 0xFFFFFFFE
		fatSect    = 0xFFFFFFFD
		noStream   = 0xFFFFFFFF
	)
	names := append([]string{"Root Entry"}, streams...)
	if len(names) > sector/entrySize {
		t.Fatalf("at most %d streams", sector/entrySize-1)
	}
	le := binary.LittleEndian
	buf := make([]byte, 3*sector)

	// Header: FAT in sector 0, directory in sector 1, no mini FAT.
	h := buf[:sector]
	copy(h, cfbMagic)
	le.PutUint16(h[24:], 0x3E)
	le.PutUint16(h[26:], 3)
	le.PutUint16(h[28:], 0xFFFE)
	le.PutUint16(h[30:], 9)
	le.PutUint16(h[32:], 6)
	le.PutUint32(h[44:], 1)
	le.PutUint32(h[48:], 1)
	le.PutUint32(h[56:], 4096)
	le.PutUint32(h[60:], endOfChain)
	le.PutUint32(h[68:], endOfChain)
	for i := 76; i < sector; i += 4 {
		le.PutUint32(h[i:], freeSect)
	}
	le.PutUint32(h[76:], 0)

	fat := buf[sector : 2*sector]
	for i := 0; i < sector; i += 4 {
		le.PutUint32(fat[i:], freeSect)
	}
	le.PutUint32(fat[0:], fatSect)
	le.PutUint32(fat[4:], endOfChain)

	dir := buf[2*sector:]
	for i := 0; i < sector/entrySize; i++ {
		e := dir[i*entrySize : (i+1)*entrySize]
		le.PutUint32(e[68:], noStream)
		le.PutUint32(e[72:], noStream)
		le.PutUint32(e[76:], noStream)
		if i >= len(names) {
			continue
		}
		for j, c := range names[i] {
			le.PutUint16(e[j*2:], uint16(c))
		}
		le.PutUint16(e[64:], uint16((len(names[i])+1)*2))
		e[66] = 2 // stream
		e[67] = 1
		le.PutUint32(e[116:], endOfChain)
		switch {
		case i == 0:
			e[66] = 5 // root storage
			if len(names) > 1 {
				le.PutUint32(e[76:], 1)
			}
		case i+1 < len(names):
			le.PutUint32(e[72:], uint32(i+1))
		}
	}
	return buf
}
