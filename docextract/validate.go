package docextract

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"

	"github.com/hazyhaar/docextract/docextract/internal/archive"
)

var pdfMagic = []byte("%PDF-")

// pdfHeaderWindow is how far into the buffer the %PDF- marker may appear.
const pdfHeaderWindow = 1024

// CheckMagic verifies the leading signature of buf against format.
// OOXML formats must be ZIP containers; an OLE2 wrapper around an encrypted
// package reports ErrPasswordProtected, anything else ErrCorruptArchive.
func CheckMagic(buf []byte, format Format) error {
	switch format {
	case FormatPPTX, FormatDocx:
		if archive.IsZip(buf) {
			return nil
		}
		if encryptedPackage(buf) {
			return newError(ErrPasswordProtected, format, nil, "encrypted package in compound file")
		}
		return newError(ErrCorruptArchive, format, archive.ErrNotZip, "")
	case FormatPDF:
		head := buf
		if len(head) > pdfHeaderWindow {
			head = head[:pdfHeaderWindow]
		}
		if !bytes.Contains(head, pdfMagic) {
			return newError(ErrCorruptArchive, format, nil, "missing PDF header")
		}
		return nil
	case FormatImage:
		return newError(ErrUnsupportedFormat, format, nil, "images are processed by the vision path")
	default:
		return newError(ErrUnsupportedFormat, format, nil, "")
	}
}

// requiredEntries checks the parts a container must hold to be extractable.
func requiredEntries(r *archive.Reader, format Format) error {
	switch format {
	case FormatDocx:
		if !r.Has(docxBody) {
			return newError(ErrCorruptArchive, format, archive.ErrEntryNotFound, docxBody)
		}
	case FormatPPTX:
		if len(slideEntries(r)) == 0 {
			return newError(ErrCorruptArchive, format, archive.ErrEntryNotFound, "no %sslideN.xml", slidesDir)
		}
	}
	return nil
}

// Probe answers "can this buffer be extracted?" without extracting it.
// Structural failures, including a PDF read that overruns the configured
// timeout, are reported in the result, not as an error; the returned error
// is non-nil only when ctx ends first.
func (e *Extractor) Probe(ctx context.Context, buf []byte, mimeType, filename string) (*ProbeResult, error) {
	format := ResolveFormat(mimeType, filename)
	res := &ProbeResult{Format: format}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fail := func(err error) (*ProbeResult, error) {
		res.Processable = false
		res.Kind = KindOf(err)
		res.Reason = err.Error()
		if errors.Is(err, ErrPasswordProtected) {
			res.Encrypted = true
		}
		return res, nil
	}

	if err := e.checkSize(buf, format); err != nil {
		return fail(err)
	}
	if err := CheckMagic(buf, format); err != nil {
		return fail(err)
	}

	if format == FormatPDF {
		info, err := withDeadline(ctx, e, format, func(context.Context) (pdfInfo, error) {
			info, err := e.probePDF(buf)
			if err != nil {
				return info, newError(ErrCorruptArchive, format, err, "")
			}
			return info, nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return fail(err)
		}
		res.PageCount = info.Pages
		res.Encrypted = info.Encrypted
		res.HasImages = info.HasImages
		return fail(errPDFUnavailable)
	}

	r, err := e.openArchive(buf)
	if err != nil {
		return fail(newError(ErrCorruptArchive, format, err, ""))
	}
	res.Entries = r.Len()
	if r.Encrypted() {
		return fail(newError(ErrPasswordProtected, format, nil, "encrypted zip entries"))
	}
	if err := requiredEntries(r, format); err != nil {
		return fail(err)
	}
	if format == FormatPPTX {
		res.PageCount = len(slideEntries(r))
	}
	res.Processable = true
	return res, nil
}

// ProbeCache stores probe results by content key. Implementations must be
// safe for concurrent use.
type ProbeCache interface {
	Get(ctx context.Context, key string) (*ProbeResult, bool, error)
	Put(ctx context.Context, key string, res *ProbeResult) error
}

// ProbeCached is Probe behind cache, keyed by the caller-supplied content
// key (usually ContentHash(buf)) combined with the resolved format, since
// the same bytes may be declared as different types. Cache failures are
// logged and fall through to Probe.
func (e *Extractor) ProbeCached(ctx context.Context, cache ProbeCache, key string, buf []byte, mimeType, filename string) (*ProbeResult, error) {
	if cache == nil || key == "" {
		return e.Probe(ctx, buf, mimeType, filename)
	}
	key += ":" + string(ResolveFormat(mimeType, filename))

	if res, ok, err := cache.Get(ctx, key); err != nil {
		e.logger.Warn("docextract: probe cache get", "error", err)
	} else if ok {
		return res, nil
	}

	res, err := e.Probe(ctx, buf, mimeType, filename)
	if err != nil {
		return nil, err
	}
	if err := cache.Put(ctx, key, res); err != nil {
		e.logger.Warn("docextract: probe cache put", "error", err)
	}
	return res, nil
}

// ContentHash returns the hex BLAKE2b-256 digest of buf.
func ContentHash(buf []byte) string {
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
