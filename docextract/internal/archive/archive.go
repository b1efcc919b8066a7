// Package archive opens in-memory OOXML containers and reads their entries
// with a decompressed-size cap.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxEntrySize bounds the decompressed size of a single entry (64 MiB).
const DefaultMaxEntrySize int64 = 64 << 20

var (
	// ErrNotZip is returned when the buffer does not start with a ZIP signature.
	ErrNotZip = errors.New("archive: not a zip container")

	// ErrEntryNotFound is returned when a named entry is absent.
	ErrEntryNotFound = errors.New("archive: entry not found")

	// ErrEntryTooLarge is returned when an entry inflates past the size cap.
	ErrEntryTooLarge = errors.New("archive: entry exceeds size cap")
)

var (
	localHeaderMagic  = []byte("PK\x03\x04")
	emptyArchiveMagic = []byte("PK\x05\x06")
)

// IsZip reports whether buf starts with a ZIP local-file-header or
// end-of-central-directory signature.
func IsZip(buf []byte) bool {
	return bytes.HasPrefix(buf, localHeaderMagic) || bytes.HasPrefix(buf, emptyArchiveMagic)
}

// Reader is an opened archive. It is not safe for concurrent use.
type Reader struct {
	zr      *zip.Reader
	byName  map[string]*zip.File
	maxSize int64
}

// Option customises Open.
type Option func(*Reader)

// WithMaxEntrySize overrides DefaultMaxEntrySize. Values <= 0 are ignored.
func WithMaxEntrySize(n int64) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// Open parses the central directory of buf.
func Open(buf []byte, opts ...Option) (*Reader, error) {
	if !IsZip(buf) {
		return nil, ErrNotZip
	}
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("archive: central directory: %w", err)
	}
	r := &Reader{
		zr:      zr,
		byName:  make(map[string]*zip.File, len(zr.File)),
		maxSize: DefaultMaxEntrySize,
	}
	for _, o := range opts {
		o(r)
	}
	for _, f := range zr.File {
		r.byName[f.Name] = f
	}
	return r, nil
}

// Len returns the number of entries in the central directory.
func (r *Reader) Len() int { return len(r.zr.File) }

// Has reports whether an entry with the exact name exists.
func (r *Reader) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Encrypted reports whether any entry carries the ZIP encryption flag.
func (r *Reader) Encrypted() bool {
	for _, f := range r.zr.File {
		if f.Flags&0x1 != 0 {
			return true
		}
	}
	return false
}

// Entries returns the names of all entries under prefix ending in suffix,
// in archive order. Directory entries are skipped.
func (r *Reader) Entries(prefix, suffix string) []string {
	var names []string
	for _, f := range r.zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if strings.HasPrefix(f.Name, prefix) && strings.HasSuffix(f.Name, suffix) {
			names = append(names, f.Name)
		}
	}
	return names
}

// Ordered is like Entries restricted to direct children of prefix, sorted by
// the numeric index embedded in the file name ("slide10.xml" after
// "slide9.xml"). Names without a number sort last, by name.
func (r *Reader) Ordered(prefix, suffix string) []string {
	var names []string
	for _, name := range r.Entries(prefix, suffix) {
		if strings.Contains(strings.TrimPrefix(name, prefix), "/") {
			continue
		}
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		ni, iok := Index(names[i])
		nj, jok := Index(names[j])
		switch {
		case iok && jok && ni != nj:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
	return names
}

var trailingIndex = regexp.MustCompile(`(\d+)\.[A-Za-z0-9]+$`)

// Index extracts the numeric index from an entry name such as
// "ppt/slides/slide12.xml". The second result is false when none is present.
func Index(name string) (int, bool) {
	m := trailingIndex.FindStringSubmatch(path.Base(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ReadBytes inflates the named entry, failing with ErrEntryTooLarge once the
// decompressed stream passes the cap.
func (r *Reader) ReadBytes(name string) ([]byte, error) {
	f, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	if f.UncompressedSize64 > uint64(r.maxSize) {
		return nil, fmt.Errorf("%w: %s declares %d bytes", ErrEntryTooLarge, name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := limitedReadAll(rc, r.maxSize)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", name, err)
	}
	return data, nil
}

// ReadString is ReadBytes decoded as a string.
func (r *Reader) ReadString(name string) (string, error) {
	data, err := r.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// limitedReadAll reads at most maxBytes from rd; one byte more is an error.
func limitedReadAll(rd io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(rd, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrEntryTooLarge
	}
	return data, nil
}
