package docextract

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	untitledDocument     = "Untitled Document"
	untitledPresentation = "Untitled Presentation"

	// maxGuessedTitle bounds a title guessed from the first line of text.
	maxGuessedTitle = 100
)

// BuildContent renders sections as "## title\n\ncontent" blocks joined by
// SectionDelimiter. ExtractedDocument.Content is always BuildContent of its
// Sections.
func BuildContent(sections []DocumentSection) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = "## " + s.Title + "\n\n" + s.Content
	}
	return strings.Join(parts, SectionDelimiter)
}

// numberSections assigns contiguous 1-based page numbers.
func numberSections(sections []DocumentSection) {
	for i := range sections {
		sections[i].PageNumber = i + 1
	}
}

// checkContent fails with ErrEmptyContent when the scanned text is shorter
// than MinContentLength characters.
func checkContent(format Format, text string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < MinContentLength {
		return newError(ErrEmptyContent, format, nil,
			"%d characters of text, need at least %d", n, MinContentLength)
	}
	return nil
}

// chooseTitle returns the first candidate that is not blank.
func chooseTitle(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

// fileStem is the filename without directory and extension.
func fileStem(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// firstLine returns the first non-blank line of text, cut to maxGuessedTitle
// runes.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxGuessedTitle {
			line = string([]rune(line)[:maxGuessedTitle])
		}
		return line
	}
	return ""
}

func assemble(format Format, title string, sections []DocumentSection, meta DocumentMetadata, images []ExtractedImage) *ExtractedDocument {
	return &ExtractedDocument{
		Type:     format,
		Title:    title,
		Content:  BuildContent(sections),
		Sections: sections,
		Metadata: meta,
		Images:   images,
	}
}
