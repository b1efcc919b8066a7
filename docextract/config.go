package docextract

import (
	"log/slog"
	"time"
)

const (
	// MaxImages caps the number of images returned per document.
	MaxImages = 20

	// MinContentLength is the minimum number of scanned characters for a
	// document to count as having text.
	MinContentLength = 10

	// SectionDelimiter separates rendered sections in ExtractedDocument.Content.
	SectionDelimiter = "\n\n---\n\n"
)

// Config configures an Extractor.
type Config struct {
	// MaxInputSize is the largest buffer accepted (default: 50 MiB).
	MaxInputSize int64 `json:"max_input_size" yaml:"max_input_size"`

	// Timeout is the wall-clock deadline for one extraction (default: 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxEntrySize bounds the decompressed size of any archive entry
	// (default: 64 MiB).
	MaxEntrySize int64 `json:"max_entry_size" yaml:"max_entry_size"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxInputSize <= 0 {
		c.MaxInputSize = 50 * 1024 * 1024
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxEntrySize <= 0 {
		c.MaxEntrySize = 64 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
