package manifest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/banksean/capsule/internal/capsuleerr"
)

func buildCapsule(t *testing.T, preamble string, manifestRaw string) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(preamble)

	zw := zip.NewWriter(&buf)
	w, err := zw.Create(manifestEntryName)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte(manifestRaw)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w2, err := zw.Create("com/example/Main.class")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w2.Write([]byte{0xCA, 0xFE, 0xBA, 0xBE})
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := filepath.Join(t.TempDir(), "app.jar")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	return path
}

func TestOpenNoPreamble(t *testing.T) {
	path := buildCapsule(t, "", "Main-Class: com.example.Main\n")
	a, err := Open(path, isPlatformTag)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.Preamble != 0 {
		t.Fatalf("Preamble = %d, want 0", a.Preamble)
	}
	mc, err := a.MainClass()
	if err != nil || mc != "com.example.Main" {
		t.Fatalf("MainClass = %q, %v", mc, err)
	}
	if len(a.Entries()) != 2 {
		t.Fatalf("Entries = %d, want 2", len(a.Entries()))
	}
}

func TestOpenWithShellPreamble(t *testing.T) {
	preamble := "#!/bin/sh\nexec java -jar $0 \"$@\"\n"
	path := buildCapsule(t, preamble, "Main-Class: com.example.Main\n")
	a, err := Open(path, isPlatformTag)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.Preamble != int64(len(preamble)) {
		t.Fatalf("Preamble = %d, want %d", a.Preamble, len(preamble))
	}
}

func TestOpenNotACapsule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notajar.txt")
	if err := os.WriteFile(path, []byte("plain text, no zip signature here"), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	_, err := Open(path, isPlatformTag)
	if !capsuleerr.Is(err, capsuleerr.NotACapsule) {
		t.Fatalf("expected NotACapsule, got %v", err)
	}
}

func TestOpenMissingManifest(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("com/example/Main.class")
	w.Write([]byte{0xCA, 0xFE})
	zw.Close()
	path := filepath.Join(t.TempDir(), "nomanifest.jar")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	_, err := Open(path, isPlatformTag)
	if !capsuleerr.Is(err, capsuleerr.NotACapsule) {
		t.Fatalf("expected NotACapsule, got %v", err)
	}
}
