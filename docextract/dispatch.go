package docextract

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF  = "application/pdf"
	mimeXPDF = "application/x-pdf"
)

// genericMIME lists declared types that say nothing about the content;
// the filename extension decides instead.
var genericMIME = map[string]bool{
	"":                             true,
	"application/octet-stream":     true,
	"binary/octet-stream":          true,
	"application/zip":              true,
	"application/x-zip":            true,
	"application/x-zip-compressed": true,
	"application/unknown":          true,
}

var mimeFormats = map[string]Format{
	mimePPTX: FormatPPTX,
	mimeDocx: FormatDocx,
	mimePDF:  FormatPDF,
	mimeXPDF: FormatPDF,
}

var extFormats = map[string]Format{
	".pptx": FormatPPTX,
	".docx": FormatDocx,
	".pdf":  FormatPDF,
	".png":  FormatImage,
	".jpg":  FormatImage,
	".jpeg": FormatImage,
	".gif":  FormatImage,
	".webp": FormatImage,
	".bmp":  FormatImage,
	".tif":  FormatImage,
	".tiff": FormatImage,
	".heic": FormatImage,
	".heif": FormatImage,
}

// ResolveFormat maps a declared MIME type and an optional filename to a
// Format. The MIME type wins unless it is absent or generic.
func ResolveFormat(mimeType, filename string) Format {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	if !genericMIME[mt] {
		if f, ok := mimeFormats[mt]; ok {
			return f
		}
		if strings.HasPrefix(mt, "image/") {
			return FormatImage
		}
		return FormatUnsupported
	}
	return extFormats[strings.ToLower(filepath.Ext(filename))]
}

// SupportedFormats returns the formats Extract can turn into a document.
func SupportedFormats() []string {
	return []string{string(FormatPPTX), string(FormatDocx)}
}
