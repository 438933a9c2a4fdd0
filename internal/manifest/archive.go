package manifest

import (
	"archive/zip"
	"bytes"
	"io"
	"os"

	"github.com/banksean/capsule/internal/capsuleerr"
)

// zipSignature is the local-file-header magic that marks the start of
// the actual zip content; a capsule may be prefixed with an executable
// shell stub ("#!/bin/sh ... exec java -jar $0 \"$@\"") that we must
// skip without consuming past the signature.
var zipSignature = []byte{'P', 'K', 0x03, 0x04}

const manifestEntryName = "META-INF/MANIFEST.MF"

// Entry describes one archive member.
type Entry struct {
	Name     string // POSIX-style relative path
	IsDir    bool
	ZipIndex int
}

// Archive is an opened capsule container: its manifest plus an entry
// enumerator and opener. Archive reading of the underlying container
// format is explicitly out of the core's scope (spec.md §1); this type
// is the interface the rest of the pipeline consumes, backed here by the
// standard library's archive/zip.
type Archive struct {
	Path     string
	Manifest *Manifest
	Preamble int64 // byte offset of the zip signature within Path

	entries []Entry
	zr      *zip.ReadCloser
}

// Open opens a capsule archive: locates the zip signature (tolerating any
// preamble), reads its manifest, and enumerates its entries once.
func Open(path string, isPlatformTag func(string) bool) (*Archive, error) {
	offset, err := findZipSignature(path)
	if err != nil {
		return nil, capsuleerr.Wrap(capsuleerr.NotACapsule, err, "locating archive signature in %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, capsuleerr.Wrap(capsuleerr.NotACapsule, err, "opening %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, capsuleerr.Wrap(capsuleerr.NotACapsule, err, "stat %s", path)
	}
	sr := io.NewSectionReader(f, offset, info.Size()-offset)
	zr, err := zip.NewReader(sr, info.Size()-offset)
	if err != nil {
		f.Close()
		return nil, capsuleerr.Wrap(capsuleerr.NotACapsule, err, "reading zip content of %s", path)
	}
	defer f.Close()

	a := &Archive{Path: path, Preamble: offset}
	var manifestRaw []byte
	for i, zf := range zr.File {
		name := normalizeEntryName(zf.Name)
		a.entries = append(a.entries, Entry{Name: name, IsDir: zf.FileInfo().IsDir(), ZipIndex: i})
		if name == manifestEntryName {
			rc, err := zf.Open()
			if err != nil {
				return nil, capsuleerr.Wrap(capsuleerr.NotACapsule, err, "opening manifest entry")
			}
			manifestRaw, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, capsuleerr.Wrap(capsuleerr.NotACapsule, err, "reading manifest entry")
			}
		}
	}
	if manifestRaw == nil {
		return nil, capsuleerr.New(capsuleerr.NotACapsule, "%s has no manifest", path)
	}

	m, err := Parse(string(manifestRaw), isPlatformTag)
	if err != nil {
		return nil, err
	}
	a.Manifest = m

	// Re-open a persistent reader for OpenEntry/ModTime use after this
	// constructor returns (the section reader above is scoped to f).
	f2, err := os.Open(path)
	if err != nil {
		return nil, capsuleerr.Wrap(capsuleerr.NotACapsule, err, "reopening %s", path)
	}
	info2, _ := f2.Stat()
	sr2 := io.NewSectionReader(f2, offset, info2.Size()-offset)
	zr2, err := zip.NewReader(sr2, info2.Size()-offset)
	if err != nil {
		f2.Close()
		return nil, capsuleerr.Wrap(capsuleerr.NotACapsule, err, "reopening zip content")
	}
	a.zr = &zip.ReadCloser{Reader: *zr2}
	return a, nil
}

// Entries returns the finite list of archive members, enumerated once at
// Open time.
func (a *Archive) Entries() []Entry { return a.entries }

// OpenEntry opens a single archive member for reading.
func (a *Archive) OpenEntry(e Entry) (io.ReadCloser, error) {
	return a.zr.File[e.ZipIndex].Open()
}

// ModTime returns the archive file's own modification time, used by the
// App-Cache Manager's freshness test.
func (a *Archive) ModTime() (int64, error) {
	fi, err := os.Stat(a.Path)
	if err != nil {
		return 0, err
	}
	return fi.ModTime().Unix(), nil
}

// MainClass returns the manifest's raw Main-Class attribute value, or
// NotACapsule if the main section has none.
func (a *Archive) MainClass() (string, error) {
	v, ok := a.Manifest.Main.Get("Main-Class")
	if !ok {
		return "", capsuleerr.New(capsuleerr.NotACapsule, "no Main-Class")
	}
	return v, nil
}

func normalizeEntryName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' {
			out = append(out, '/')
		} else {
			out = append(out, name[i])
		}
	}
	return string(out)
}

// findZipSignature performs a buffered, forward-only scan for the zip
// local-file-header magic, returning its byte offset without consuming
// past it. This tolerates an arbitrary shell-stub preamble in front of
// the real zip content.
func findZipSignature(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	const chunkSize = 64 * 1024
	buf := make([]byte, chunkSize)
	var total int64
	carry := make([]byte, 0, len(zipSignature))
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			window := append(append([]byte{}, carry...), buf[:n]...)
			if idx := bytes.Index(window, zipSignature); idx >= 0 {
				return total - int64(len(carry)) + int64(idx), nil
			}
			if len(window) >= len(zipSignature) {
				carry = append(carry[:0], window[len(window)-len(zipSignature)+1:]...)
			} else {
				carry = window
			}
			total += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return 0, readErr
		}
	}
	return 0, capsuleerr.New(capsuleerr.NotACapsule, "no zip signature found in %s", path)
}
