package appcache

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func strEntry(name, content string) Entry {
	return Entry{
		Name: name,
		OpenRdr: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestEnsureExtractedSkipsWhenCacheNotNeeded(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.EnsureExtracted(context.Background(), false, 0, false, nil, nil); err != nil {
		t.Fatalf("EnsureExtracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(c.Dir, extractedSentinel)); err == nil {
		t.Fatalf("expected no sentinel written")
	}
}

func TestEnsureExtractedFiltersAndWritesFiles(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	entries := []Entry{
		strEntry("foo.jar", "jar-bytes"),
		strEntry("lib/a.jar", "lib-a-bytes"),
		strEntry("b.txt", "text"),
		strEntry("META-INF/x.txt", "meta"),
		strEntry("a.class", "classbytes"),
	}
	filter := DefaultFilter("")
	if err := c.EnsureExtracted(context.Background(), true, time.Now().Unix(), false, entries, filter); err != nil {
		t.Fatalf("EnsureExtracted: %v", err)
	}
	for _, want := range []string{"foo.jar", "lib/a.jar", "b.txt"} {
		if _, err := os.Stat(filepath.Join(c.Dir, want)); err != nil {
			t.Fatalf("expected %s to exist: %v", want, err)
		}
	}
	for _, notWant := range []string{"META-INF/x.txt", "a.class"} {
		if _, err := os.Stat(filepath.Join(c.Dir, notWant)); err == nil {
			t.Fatalf("expected %s to be excluded", notWant)
		}
	}
	if _, err := os.Stat(filepath.Join(c.Dir, extractedSentinel)); err != nil {
		t.Fatalf("expected sentinel to be written: %v", err)
	}
}

func TestIsFreshRespectsArchiveMtimeAndReset(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	now := time.Now()
	sentinel := filepath.Join(c.Dir, extractedSentinel)
	if err := os.WriteFile(sentinel, nil, 0o640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(sentinel, now, now); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if !c.IsFresh(now.Add(-time.Hour).Unix(), false) {
		t.Fatalf("expected fresh when sentinel newer than archive")
	}
	if c.IsFresh(now.Add(time.Hour).Unix(), false) {
		t.Fatalf("expected stale when archive newer than sentinel")
	}
	if c.IsFresh(now.Add(-time.Hour).Unix(), true) {
		t.Fatalf("expected reset flag to force staleness")
	}
}

func TestEnsureExtractedIsIdempotentOnceFresh(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	calls := 0
	entries := []Entry{{Name: "foo.jar", OpenRdr: func() (io.ReadCloser, error) {
		calls++
		return io.NopCloser(strings.NewReader("x")), nil
	}}}
	filter := DefaultFilter("")
	archiveMod := time.Now().Add(-time.Hour).Unix()

	if err := c.EnsureExtracted(context.Background(), true, archiveMod, false, entries, filter); err != nil {
		t.Fatalf("EnsureExtracted: %v", err)
	}
	if err := c.EnsureExtracted(context.Background(), true, archiveMod, false, entries, filter); err != nil {
		t.Fatalf("EnsureExtracted: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single extraction pass, got %d calls", calls)
	}
}

func TestAppDirDeterministicAndSanitized(t *testing.T) {
	root := t.TempDir()
	d1, err := AppDir(root, "My App!", "1.0", "/tmp/my-app.jar")
	if err != nil {
		t.Fatalf("AppDir: %v", err)
	}
	d2, err := AppDir(root, "My App!", "1.0", "/tmp/my-app.jar")
	if err != nil {
		t.Fatalf("AppDir: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("expected deterministic path, got %q vs %q", d1, d2)
	}
	if strings.Contains(filepath.Base(d1), "!") {
		t.Fatalf("expected sanitized path component, got %q", d1)
	}
}
