// Package docextract turns uploaded office documents into titled plain-text
// sections plus embedded images, ready for downstream indexing.
//
// Supported formats:
//   - .pptx  PowerPoint (one section per slide, speaker notes appended)
//   - .docx  Word (sections split at headings)
//   - .pdf   recognised and probed, but text extraction is not provided
//
// Every call runs behind a size cap and a wall-clock deadline and fails
// with one of the Err* sentinels.
//
// Usage:
//
//	ex := docextract.New(docextract.Config{})
//	doc, err := ex.Extract(ctx, buf, "", "deck.pptx")
//	fmt.Println(doc.Title, len(doc.Sections), "sections")
package docextract

import (
	"context"
	"log/slog"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/docextract/docextract/internal/archive"
)

// Extractor is the extraction engine. It holds no per-document state and
// is safe for concurrent use.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
	policy *bluemonday.Policy
	md     *converter.Converter

	// openArchive and probePDF are swapped in tests to observe or stall
	// parsing.
	openArchive func(buf []byte) (*archive.Reader, error)
	probePDF    func(buf []byte) (pdfInfo, error)
}

// New creates an Extractor with the given configuration.
func New(cfg Config) *Extractor {
	cfg.defaults()
	e := &Extractor{
		cfg:      cfg,
		logger:   cfg.Logger,
		policy:   newMarkupPolicy(),
		md:       newMarkdownConverter(),
		probePDF: probePDF,
	}
	e.openArchive = func(buf []byte) (*archive.Reader, error) {
		return archive.Open(buf, archive.WithMaxEntrySize(cfg.MaxEntrySize))
	}
	return e
}

// job is the per-call state handed to a format processor.
type job struct {
	buf      []byte
	filename string
	log      *slog.Logger
}

type processor func(e *Extractor, ctx context.Context, j *job) (*ExtractedDocument, error)

var processors = map[Format]processor{
	FormatPPTX: (*Extractor).extractPPTX,
	FormatDocx: (*Extractor).extractDocx,
	FormatPDF:  (*Extractor).extractPDF,
}

// Extract resolves the format of buf from mimeType and filename and runs the
// matching processor under the size cap and deadline. filename may be empty.
func (e *Extractor) Extract(ctx context.Context, buf []byte, mimeType, filename string) (*ExtractedDocument, error) {
	format := ResolveFormat(mimeType, filename)
	if err := e.checkSize(buf, format); err != nil {
		e.logger.Info("docextract: rejected", "format", format, "size", len(buf), "error", err)
		return nil, err
	}

	proc, ok := processors[format]
	if !ok {
		detail := "declared type " + mimeType
		if format == FormatImage {
			detail = "images are processed by the vision path"
		}
		return nil, newError(ErrUnsupportedFormat, format, nil, detail)
	}

	j := &job{
		buf:      buf,
		filename: filename,
		log: e.logger.With(
			"extraction_id", newExtractionID(),
			"format", format,
			"filename", filename,
			"size", len(buf),
		),
	}
	j.log.Debug("docextract: extracting")

	doc, err := withDeadline(ctx, e, format, func(ctx context.Context) (*ExtractedDocument, error) {
		return proc(e, ctx, j)
	})
	if err != nil {
		j.log.Info("docextract: failed", "kind", KindOf(err), "error", err)
		return nil, err
	}
	j.log.Debug("docextract: done", "sections", len(doc.Sections), "images", len(doc.Images))
	return doc, nil
}

func newExtractionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// openContainer validates and opens the ZIP container of an OOXML format.
func (e *Extractor) openContainer(buf []byte, format Format) (*archive.Reader, error) {
	if err := CheckMagic(buf, format); err != nil {
		return nil, err
	}
	r, err := e.openArchive(buf)
	if err != nil {
		return nil, newError(ErrCorruptArchive, format, err, "")
	}
	if r.Encrypted() {
		return nil, newError(ErrPasswordProtected, format, nil, "encrypted zip entries")
	}
	if err := requiredEntries(r, format); err != nil {
		return nil, err
	}
	return r, nil
}
