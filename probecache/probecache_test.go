package probecache

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/docextract/dbopen"
	"github.com/hazyhaar/docextract/docextract"
)

func newTestCache(t *testing.T, max int) *Cache {
	t.Helper()
	return New(dbopen.OpenMemory(t, dbopen.WithSchema(Schema)), max)
}

func TestGetPut(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}

	want := &docextract.ProbeResult{
		Format:      docextract.FormatPPTX,
		Processable: true,
		Entries:     12,
		PageCount:   3,
	}
	if err := c.Put(ctx, "k1", want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("hit: ok=%v err=%v", ok, err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestPut_Replaces(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	c.Put(ctx, "k", &docextract.ProbeResult{Format: docextract.FormatDocx})
	c.Put(ctx, "k", &docextract.ProbeResult{Format: docextract.FormatDocx, Processable: true})

	got, _, _ := c.Get(ctx, "k")
	if !got.Processable {
		t.Fatal("second Put should replace the first")
	}
	if n, _ := c.Len(ctx); n != 1 {
		t.Fatalf("Len = %d, want 1", n)
	}
}

func TestPut_EvictsOldest(t *testing.T) {
	// WHAT: the cache never holds more than maxEntries rows.
	// WHY: the probe endpoint is fed by uploads; an unbounded table grows forever.
	c := newTestCache(t, 3)
	ctx := context.Background()

	for i := range 5 {
		if err := c.Put(ctx, fmt.Sprintf("k%d", i), &docextract.ProbeResult{Entries: i}); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := c.Len(ctx); n != 3 {
		t.Fatalf("Len = %d, want 3", n)
	}
	for _, k := range []string{"k0", "k1"} {
		if _, ok, _ := c.Get(ctx, k); ok {
			t.Errorf("%s should have been evicted", k)
		}
	}
	for _, k := range []string{"k2", "k3", "k4"} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "probecache.db")
	c, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.maxEntries != DefaultMaxEntries {
		t.Fatalf("maxEntries = %d, want %d", c.maxEntries, DefaultMaxEntries)
	}
	if err := c.Put(context.Background(), "k", &docextract.ProbeResult{}); err != nil {
		t.Fatal(err)
	}
}

func TestProbeCached_UsesCache(t *testing.T) {
	c := newTestCache(t, 10)
	ex := docextract.New(docextract.Config{})
	ctx := context.Background()
	buf := []byte("plain text, not a container")

	first, err := ex.ProbeCached(ctx, c, docextract.ContentHash(buf), buf, "", "notes.docx")
	if err != nil {
		t.Fatal(err)
	}
	if first.Processable || first.Kind != docextract.KindCorruptArchive {
		t.Fatalf("probe = %+v, want corrupt archive", first)
	}
	if n, _ := c.Len(ctx); n != 1 {
		t.Fatalf("Len = %d, want 1 after first probe", n)
	}

	second, err := ex.ProbeCached(ctx, c, docextract.ContentHash(buf), buf, "", "notes.docx")
	if err != nil {
		t.Fatal(err)
	}
	if *second != *first {
		t.Fatalf("cached %+v != fresh %+v", second, first)
	}
}
