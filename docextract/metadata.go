package docextract

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/hazyhaar/docextract/docextract/internal/archive"
	"github.com/hazyhaar/docextract/docextract/internal/ooxml"
)

const (
	corePropsPart = "docProps/core.xml"
	appPropsPart  = "docProps/app.xml"
)

// docProps is what the package property parts say about a document.
type docProps struct {
	Title  string
	Meta   DocumentMetadata
	Pages  int
	Slides int
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// readProps reads docProps/core.xml and docProps/app.xml. Both are optional;
// missing or unreadable parts leave their fields empty.
func readProps(r *archive.Reader, log *slog.Logger) docProps {
	var p docProps

	if core, err := r.ReadString(corePropsPart); err == nil {
		p.Title = ooxml.TagValue(core, "dc:title")
		p.Meta.Author = ooxml.TagValue(core, "dc:creator")
		p.Meta.Subject = ooxml.TagValue(core, "dc:subject")
		p.Meta.Keywords = ooxml.TagValue(core, "cp:keywords")
		p.Meta.LastModifiedBy = ooxml.TagValue(core, "cp:lastModifiedBy")
		p.Meta.CreatedDate = parseDate(ooxml.TagValue(core, "dcterms:created"))
		p.Meta.ModifiedDate = parseDate(ooxml.TagValue(core, "dcterms:modified"))
	} else if r.Has(corePropsPart) {
		log.Warn("docextract: core properties unreadable", "error", err)
	}

	if app, err := r.ReadString(appPropsPart); err == nil {
		p.Pages = atoi(ooxml.TagValue(app, "Pages"))
		p.Slides = atoi(ooxml.TagValue(app, "Slides"))
		p.Meta.WordCount = atoi(ooxml.TagValue(app, "Words"))
	} else if r.Has(appPropsPart) {
		log.Warn("docextract: app properties unreadable", "error", err)
	}

	return p
}

// parseDate returns nil for empty or unparsable W3CDTF values.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
