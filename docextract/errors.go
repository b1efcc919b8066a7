package docextract

import (
	"errors"
	"fmt"
)

// Fatal error kinds. Every error returned by Extract matches exactly one of
// these with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("docextract: unsupported format")
	ErrCorruptArchive    = errors.New("docextract: corrupt archive")
	ErrPasswordProtected = errors.New("docextract: password protected")
	ErrEmptyContent      = errors.New("docextract: empty content")
	ErrTimedOut          = errors.New("docextract: timed out")
	ErrOversizedInput    = errors.New("docextract: oversized input")
)

// Kind names an error kind for callers that map errors to messages or
// status codes.
type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported_format"
	KindCorruptArchive    Kind = "corrupt_archive"
	KindPasswordProtected Kind = "password_protected"
	KindEmptyContent      Kind = "empty_content"
	KindTimedOut          Kind = "timed_out"
	KindOversizedInput    Kind = "oversized_input"
	KindInternal          Kind = "internal"
)

var kindSentinels = []struct {
	kind Kind
	err  error
}{
	{KindUnsupportedFormat, ErrUnsupportedFormat},
	{KindCorruptArchive, ErrCorruptArchive},
	{KindPasswordProtected, ErrPasswordProtected},
	{KindEmptyContent, ErrEmptyContent},
	{KindTimedOut, ErrTimedOut},
	{KindOversizedInput, ErrOversizedInput},
}

// ExtractError carries the kind, the resolved format and the underlying
// cause of a failed extraction.
type ExtractError struct {
	Kind   error // one of the Err* sentinels
	Format Format
	Detail string
	Cause  error
}

func (e *ExtractError) Error() string {
	msg := e.Kind.Error()
	if e.Format != FormatUnsupported {
		msg += " (" + string(e.Format) + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is matches the sentinel kind.
func (e *ExtractError) Is(target error) bool { return e.Kind == target }

func (e *ExtractError) Unwrap() error { return e.Cause }

func newError(kind error, format Format, cause error, detail string, args ...any) *ExtractError {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &ExtractError{Kind: kind, Format: format, Detail: detail, Cause: cause}
}

// KindOf classifies err. Errors outside the six fatal kinds are
// KindInternal.
func KindOf(err error) Kind {
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindInternal
}
