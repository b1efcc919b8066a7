package docextract

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/hazyhaar/docextract/docextract/internal/archive"
	"github.com/hazyhaar/docextract/docextract/internal/ooxml"
)

const (
	slidesDir   = "ppt/slides/"
	notesDir    = "ppt/notesSlides/"
	pptMediaDir = "ppt/media/"

	notesRelType = "/notesSlide"
	notesLabel   = "Speaker Notes: "
)

// slideEntries returns ppt/slides/slideN.xml entries in slide order.
func slideEntries(r *archive.Reader) []string {
	var slides []string
	for _, name := range r.Ordered(slidesDir, ".xml") {
		if !strings.HasPrefix(path.Base(name), "slide") {
			continue
		}
		if _, ok := archive.Index(name); ok {
			slides = append(slides, name)
		}
	}
	return slides
}

// slide is one parsed slide before numbering.
type slide struct {
	section DocumentSection
	titled  bool // title came from the slide, not SlideLabel
	markup  string
	scanned string // slide and notes text without labels
}

// extractPPTX builds one section per readable slide. Unreadable slides are
// logged and skipped; the remaining slides are numbered contiguously.
func (e *Extractor) extractPPTX(ctx context.Context, j *job) (*ExtractedDocument, error) {
	r, err := e.openContainer(j.buf, FormatPPTX)
	if err != nil {
		return nil, err
	}
	props := readProps(r, j.log)

	var (
		sections  []DocumentSection
		deckTitle string
		text      strings.Builder
		refs      = make(map[string]mediaRef)
	)
	for _, name := range slideEntries(r) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, _ := archive.Index(name)
		s, err := readSlide(r, name, n)
		if err != nil {
			j.log.Warn("docextract: slide skipped", "entry", name, "error", err)
			continue
		}
		if deckTitle == "" && s.titled {
			deckTitle = s.section.Title
		}
		sections = append(sections, s.section)
		collectRefs(refs, r, name, s.markup, len(sections))
		text.WriteString(s.scanned)
		text.WriteByte('\n')
	}
	if len(sections) == 0 {
		return nil, newError(ErrCorruptArchive, FormatPPTX, nil, "no readable slides")
	}
	numberSections(sections)

	if err := checkContent(FormatPPTX, text.String()); err != nil {
		return nil, err
	}

	meta := props.Meta
	meta.PageCount = len(sections)
	title := chooseTitle(props.Title, deckTitle, fileStem(j.filename), untitledPresentation)
	images := extractImages(ctx, r, pptMediaDir, refs, j.log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return assemble(FormatPPTX, title, sections, meta, images), nil
}

// readSlide scans one slide and its notes. Only a failure to read the slide
// entry itself is an error; missing notes are not.
func readSlide(r *archive.Reader, name string, n int) (slide, error) {
	markup, err := r.ReadString(name)
	if err != nil {
		return slide{}, err
	}

	s := slide{markup: markup}
	s.section.Title, s.titled = ooxml.SlideTitle(markup)
	if !s.titled {
		s.section.Title = ooxml.SlideLabel(n)
	}

	content := ooxml.Text(markup)
	s.scanned = content
	if notes := slideNotes(r, name, n); notes != "" {
		s.scanned += "\n" + notes
		if content != "" {
			content += "\n\n"
		}
		content += notesLabel + notes
	}
	s.section.Content = content
	return s, nil
}

// slideNotes finds the notes page of a slide through its relationships,
// falling back to the notes entry with the same number.
func slideNotes(r *archive.Reader, slidePart string, n int) string {
	part := notesDir + "notesSlide" + strconv.Itoa(n) + ".xml"
	if relsXML, err := r.ReadString(ooxml.RelsPath(slidePart)); err == nil {
		for _, rel := range ooxml.Relationships(relsXML) {
			if strings.HasSuffix(rel.Type, notesRelType) {
				part = ooxml.ResolveTarget(slidePart, rel.Target)
				break
			}
		}
	}
	notesXML, err := r.ReadString(part)
	if err != nil {
		return ""
	}
	return ooxml.NotesText(notesXML)
}
