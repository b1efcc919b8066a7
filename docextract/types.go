package docextract

import "time"

// Format identifies a resolved input kind.
type Format string

const (
	FormatPPTX        Format = "pptx"
	FormatDocx        Format = "docx"
	FormatPDF         Format = "pdf"
	FormatImage       Format = "image"
	FormatUnsupported Format = ""
)

// ExtractedDocument is the normalized result of one extraction call.
// It is built once and never mutated afterwards.
type ExtractedDocument struct {
	Type     Format            `json:"type"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Sections []DocumentSection `json:"sections"`
	Metadata DocumentMetadata  `json:"metadata"`
	Images   []ExtractedImage  `json:"images,omitempty"`
}

// DocumentSection is a titled block of plain text. PageNumber is 1-based
// and contiguous across a document.
type DocumentSection struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	PageNumber int    `json:"pageNumber"`
}

// DocumentMetadata carries document properties. Everything but PageCount is
// optional.
type DocumentMetadata struct {
	PageCount      int        `json:"pageCount"`
	Author         string     `json:"author,omitempty"`
	CreatedDate    *time.Time `json:"createdDate,omitempty"`
	ModifiedDate   *time.Time `json:"modifiedDate,omitempty"`
	Subject        string     `json:"subject,omitempty"`
	Keywords       string     `json:"keywords,omitempty"`
	LastModifiedBy string     `json:"lastModifiedBy,omitempty"`
	WordCount      int        `json:"wordCount,omitempty"`
}

// ExtractedImage is an embedded image returned alongside the text.
type ExtractedImage struct {
	Data       string `json:"data"` // base64, standard encoding
	MimeType   string `json:"mimeType"`
	Filename   string `json:"filename,omitempty"`
	PageNumber int    `json:"pageNumber,omitempty"`
	Alt        string `json:"alt,omitempty"`
}

// ProbeResult is the outcome of a cheap structural check.
type ProbeResult struct {
	Format      Format `json:"format"`
	Processable bool   `json:"processable"`
	Kind        Kind   `json:"kind,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Entries     int    `json:"entries,omitempty"`
	PageCount   int    `json:"pageCount,omitempty"`
	Encrypted   bool   `json:"encrypted,omitempty"`
	HasImages   bool   `json:"hasImages,omitempty"`
}
