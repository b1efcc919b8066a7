package docextract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazyhaar/docextract/docextract/internal/archive"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		mime, filename string
		want           Format
	}{
		{mimePPTX, "", FormatPPTX},
		{mimeDocx, "whatever.bin", FormatDocx},
		{"application/pdf", "", FormatPDF},
		{"application/x-pdf", "", FormatPDF},
		{"Application/PDF; charset=binary", "", FormatPDF},
		{"image/png", "", FormatImage},
		{"image/heic", "photo.docx", FormatImage},
		{"", "deck.PPTX", FormatPPTX},
		{"application/octet-stream", "notes.docx", FormatDocx},
		{"application/zip", "slides.pptx", FormatPPTX},
		{"", "scan.jpeg", FormatImage},
		{"", "report.pdf", FormatPDF},
		{"", "", FormatUnsupported},
		{"", "README", FormatUnsupported},
		{"text/plain", "notes.docx", FormatUnsupported},
		{"application/msword", "old.doc", FormatUnsupported},
	}
	for _, tt := range tests {
		if got := ResolveFormat(tt.mime, tt.filename); got != tt.want {
			t.Errorf("ResolveFormat(%q, %q) = %q, want %q", tt.mime, tt.filename, got, tt.want)
		}
	}
}

func TestSupportedFormats(t *testing.T) {
	got := SupportedFormats()
	if len(got) != 2 || got[0] != "pptx" || got[1] != "docx" {
		t.Fatalf("SupportedFormats() = %v", got)
	}
}

// spy wraps the archive opener to record whether parsing started.
func spy(e *Extractor) *atomic.Int32 {
	var calls atomic.Int32
	open := e.openArchive
	e.openArchive = func(buf []byte) (*archive.Reader, error) {
		calls.Add(1)
		return open(buf)
	}
	return &calls
}

func TestExtract_OversizedRejectedBeforeParsing(t *testing.T) {
	e := New(Config{MaxInputSize: 1024})
	calls := spy(e)
	buf := bytes.Repeat([]byte("PK\x03\x04"), 512)

	_, err := e.Extract(context.Background(), buf, "", "big.docx")
	if !errors.Is(err, ErrOversizedInput) {
		t.Fatalf("got %v, want ErrOversizedInput", err)
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("archive opened %d times", n)
	}
}

func TestExtract_AtSizeLimitIsParsed(t *testing.T) {
	buf := zipOf(t, wordDoc(para("", "Exactly at the limit.")))
	e := New(Config{MaxInputSize: int64(len(buf))})
	calls := spy(e)

	if _, err := e.Extract(context.Background(), buf, "", "limit.docx"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Fatalf("archive opened %d times, want 1", calls.Load())
	}
}

func TestExtract_TimedOut(t *testing.T) {
	e := New(Config{Timeout: 20 * time.Millisecond})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	open := e.openArchive
	e.openArchive = func(buf []byte) (*archive.Reader, error) {
		<-release
		return open(buf)
	}

	start := time.Now()
	_, err := e.Extract(context.Background(), zipOf(t, deck("Slow")), "", "slow.pptx")
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("got %v, want ErrTimedOut", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Extract returned after %v", elapsed)
	}
}

func TestExtract_CallerCancellationIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Extract(ctx, zipOf(t, deck("One", "Two")), "", "deck.pptx")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimedOut) {
		t.Fatal("cancellation reported as timeout")
	}
}

func TestExtract_ParserPanicIsCorrupt(t *testing.T) {
	e := New(Config{})
	e.openArchive = func([]byte) (*archive.Reader, error) { panic("index out of range") }

	_, err := e.Extract(context.Background(), zipOf(t, deck("Boom")), "", "boom.pptx")
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("got %v, want ErrCorruptArchive", err)
	}
}

func TestExtract_Unsupported(t *testing.T) {
	tests := []struct {
		name, mime, filename string
		buf                  []byte
	}{
		{"image", "image/png", "scan.png", []byte(pngBytes(1))},
		{"pdf", "application/pdf", "report.pdf", []byte("%PDF-1.4\n% not really a pdf")},
		{"unknown", "text/plain", "notes.txt", []byte("plain text")},
		{"no hints", "", "", []byte("anything")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{}).Extract(context.Background(), tt.buf, tt.mime, tt.filename)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("got %v, want ErrUnsupportedFormat", err)
			}
			if KindOf(err) != KindUnsupportedFormat {
				t.Fatalf("KindOf = %q", KindOf(err))
			}
		})
	}
}

func TestExtract_NotAZip(t *testing.T) {
	for _, buf := range [][]byte{
		[]byte("this is definitely not a zip archive"),
		append(append([]byte{}, cfbMagic...), bytes.Repeat([]byte{0}, 64)...),
		nil,
	} {
		_, err := New(Config{}).Extract(context.Background(), buf, mimeDocx, "")
		if !errors.Is(err, ErrCorruptArchive) {
			t.Fatalf("got %v, want ErrCorruptArchive", err)
		}
	}
}

// encryptedZip sets the traditional encryption bit on an entry.
func encryptedZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.CreateHeader(&zip.FileHeader{Name: "word/document.xml", Method: zip.Store, Flags: 0x1})
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("ciphertext"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtract_EncryptedEntries(t *testing.T) {
	_, err := New(Config{}).Extract(context.Background(), encryptedZip(t), "", "secret.docx")
	if !errors.Is(err, ErrPasswordProtected) {
		t.Fatalf("got %v, want ErrPasswordProtected", err)
	}
}

func TestExtractError(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := newError(ErrCorruptArchive, FormatDocx, cause, "entry %s", "word/document.xml")

	if got, want := err.Error(), "docextract: corrupt archive (docx): entry word/document.xml: zip: not a valid zip file"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrCorruptArchive) || errors.Is(err, ErrEmptyContent) {
		t.Fatal("Is does not match the kind only")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not unwrapped")
	}

	var ee *ExtractError
	if !errors.As(error(err), &ee) || ee.Format != FormatDocx {
		t.Fatalf("As = %+v", ee)
	}
}

func TestExtractError_DetailWithoutArgs(t *testing.T) {
	err := newError(ErrEmptyContent, FormatUnsupported, nil, "100% blank")
	if got := err.Error(); got != "docextract: empty content: 100% blank" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{newError(ErrUnsupportedFormat, FormatImage, nil, ""), KindUnsupportedFormat},
		{newError(ErrCorruptArchive, FormatPPTX, nil, ""), KindCorruptArchive},
		{newError(ErrPasswordProtected, FormatDocx, nil, ""), KindPasswordProtected},
		{newError(ErrEmptyContent, FormatDocx, nil, ""), KindEmptyContent},
		{newError(ErrTimedOut, FormatDocx, context.DeadlineExceeded, ""), KindTimedOut},
		{newError(ErrOversizedInput, FormatDocx, nil, ""), KindOversizedInput},
		{errors.New("other"), KindInternal},
		{nil, KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestBuildContent(t *testing.T) {
	got := BuildContent([]DocumentSection{
		{Title: "A", Content: "alpha", PageNumber: 1},
		{Title: "B", Content: "beta", PageNumber: 2},
	})
	if want := "## A\n\nalpha\n\n---\n\n## B\n\nbeta"; got != want {
		t.Fatalf("BuildContent = %q, want %q", got, want)
	}
	if BuildContent(nil) != "" {
		t.Fatal("BuildContent(nil) not empty")
	}
}

func TestFileStemAndFirstLine(t *testing.T) {
	for in, want := range map[string]string{
		"deck.pptx":              "deck",
		"/tmp/uploads/plan.docx": "plan",
		`C:\docs\memo.docx`:      "memo",
		"":                       "",
	} {
		if got := fileStem(in); got != want {
			t.Errorf("fileStem(%q) = %q, want %q", in, got, want)
		}
	}

	if got := firstLine("\n  \n  First real line  \nsecond"); got != "First real line" {
		t.Fatalf("firstLine = %q", got)
	}
	if got := firstLine(strings.Repeat("é", 150)); len([]rune(got)) != maxGuessedTitle {
		t.Fatalf("firstLine kept %d runes", len([]rune(got)))
	}
}

func TestExtract_EncryptedCompoundFile(t *testing.T) {
	buf := compoundFile(t, "EncryptionInfo", "EncryptedPackage")
	if !encryptedPackage(buf) {
		t.Fatal("encrypted package not found in compound file")
	}

	_, err := New(Config{}).Extract(context.Background(), buf, mimeDocx, "locked.docx")
	if !errors.Is(err, ErrPasswordProtected) {
		t.Fatalf("got %v, want ErrPasswordProtected", err)
	}

	res, err := New(Config{}).Probe(context.Background(), buf, "", "locked.docx")
	if err != nil {
		t.Fatal(err)
	}
	if res.Processable || res.Kind != KindPasswordProtected || !res.Encrypted {
		t.Fatalf("probe = %+v", res)
	}
}

func TestExtract_PlainCompoundFileIsCorrupt(t *testing.T) {
	// A legacy .doc saved with a .docx name holds no encrypted package.
	buf := compoundFile(t, "WordDocument")
	if encryptedPackage(buf) {
		t.Fatal("plain compound file reported encrypted")
	}
	_, err := New(Config{}).Extract(context.Background(), buf, "", "renamed.docx")
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("got %v, want ErrCorruptArchive", err)
	}
}
