package docextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// errPDFUnavailable is returned for every PDF extraction. Text extraction
// from PDF is not provided by this package; callers route PDFs to the
// page-image path instead.
var errPDFUnavailable = newError(ErrUnsupportedFormat, FormatPDF, nil,
	"pdf text extraction is not available, submit page images instead")

// extractPDF never produces a document.
func (e *Extractor) extractPDF(_ context.Context, _ *job) (*ExtractedDocument, error) {
	return nil, errPDFUnavailable
}

type pdfInfo struct {
	Pages     int
	Encrypted bool
	HasImages bool
}

// probePDF reads the cross-reference structure to report the page count.
// A PDF with a user password fails to read and is reported encrypted.
func probePDF(buf []byte) (info pdfInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(buf), conf)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "password") {
			return pdfInfo{Encrypted: true}, nil
		}
		return pdfInfo{}, fmt.Errorf("pdfcpu read: %w", err)
	}

	info.Pages = ctx.PageCount
	info.Encrypted = ctx.Encrypt != nil
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
			info.HasImages = true
			break
		}
	}
	return info, nil
}
