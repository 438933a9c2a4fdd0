// Package appcache implements the App-Cache Manager: resolving the
// per-app extraction directory, testing and maintaining its freshness,
// and serializing mutating access with an advisory file lock.
package appcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/banksean/capsule/internal/capsuleerr"
)

const (
	extractedSentinel = ".extracted"
	lockFileName      = ".lock"
)

// Root resolves the cache root directory from CAPSULE_CACHE_DIR, falling
// back to LOCALAPPDATA on Windows or the user's home directory otherwise.
func Root() (string, error) {
	if v := os.Getenv("CAPSULE_CACHE_DIR"); v != "" {
		return v, nil
	}
	if runtime.GOOS == "windows" {
		if v := os.Getenv("LOCALAPPDATA"); v != "" {
			return filepath.Join(v, "capsule"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", capsuleerr.Wrap(capsuleerr.CacheIOError, err, "resolving home directory")
	}
	return filepath.Join(home, ".capsule", "cache"), nil
}

// AppDir names the per-app cache directory by capsule identity: the app
// name, plus version if present, suffixed with a hash of the name,
// version and absolute archive path so that archives of the same
// declared identity at different locations get distinct directories.
// The archive's content is not hashed.
func AppDir(root, appName, appVersion string, archivePath string) (string, error) {
	h := sha256.New()
	io.WriteString(h, appName)
	io.WriteString(h, "\x00")
	io.WriteString(h, appVersion)
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		abs = archivePath
	}
	io.WriteString(h, "\x00")
	io.WriteString(h, abs)
	sum := hex.EncodeToString(h.Sum(nil))[:16]

	name := appName
	if name == "" {
		name = "app"
	}
	name = sanitizeComponent(name)
	dirName := name
	if appVersion != "" {
		dirName = fmt.Sprintf("%s-%s", name, sanitizeComponent(appVersion))
	}
	return filepath.Join(root, fmt.Sprintf("%s-%s", dirName, sum)), nil
}

func sanitizeComponent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Entry is one archive member to extract.
type Entry struct {
	Name    string
	IsDir   bool
	OpenRdr func() (io.ReadCloser, error)
}

// Cache is an opened App-Cache directory for one capsule.
type Cache struct {
	Dir string
}

// New returns a Cache rooted at dir, creating it if absent.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, capsuleerr.Wrap(capsuleerr.CacheIOError, err, "creating app-cache dir %s", dir)
	}
	return &Cache{Dir: dir}, nil
}

// IsFresh reports whether the freshness sentinel exists and is at least
// as new as the archive.
func (c *Cache) IsFresh(archiveModTime int64, reset bool) bool {
	if reset {
		return false
	}
	fi, err := os.Stat(filepath.Join(c.Dir, extractedSentinel))
	if err != nil {
		return false
	}
	return fi.ModTime().Unix() >= archiveModTime
}

// EnsureExtracted runs the full readiness algorithm from spec.md §4.4:
// skip entirely if the cache isn't needed; otherwise test freshness,
// and if stale, acquire the exclusive lock, re-test (double-checked),
// wipe and re-extract if still stale, then stamp freshness.
func (c *Cache) EnsureExtracted(ctx context.Context, needsCache bool, archiveModTime int64, reset bool, entries []Entry, filter func(name string) bool) error {
	if !needsCache {
		return nil
	}
	if c.IsFresh(archiveModTime, reset) {
		return nil
	}

	lock, err := c.acquireLock()
	if err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "acquiring app-cache lock")
	}
	defer c.releaseLock(lock)

	if c.IsFresh(archiveModTime, reset) {
		return nil
	}

	if err := c.clean(); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		name := normalizeEntryName(e.Name)
		if !filter(name) {
			continue
		}
		if err := c.extractOne(name, e); err != nil {
			return err
		}
	}

	sentinel := filepath.Join(c.Dir, extractedSentinel)
	f, err := os.Create(sentinel)
	if err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "stamping freshness sentinel")
	}
	f.Close()
	slog.DebugContext(ctx, "appcache.EnsureExtracted", "dir", c.Dir)
	return nil
}

func (c *Cache) extractOne(name string, e Entry) error {
	dest := filepath.Join(c.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "creating dir for %s", name)
	}
	rc, err := e.OpenRdr()
	if err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "opening entry %s", name)
	}
	defer rc.Close()
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "creating %s", dest)
	}
	defer out.Close()
	if _, err := io.Copy(out, rc); err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "writing %s", dest)
	}
	return nil
}

func normalizeEntryName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// DefaultFilter implements spec.md §4.4's extraction filter: exclude
// class files, META-INF/**, and the capsule's own class name.
func DefaultFilter(ownClassEntry string) func(string) bool {
	return func(name string) bool {
		if strings.HasSuffix(name, ".class") {
			return false
		}
		if strings.HasPrefix(name, "META-INF/") {
			return false
		}
		if ownClassEntry != "" && name == ownClassEntry {
			return false
		}
		return true
	}
}

// clean removes every file under the cache dir except the lock file.
func (c *Cache) clean() error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "reading app-cache dir %s", c.Dir)
	}
	for _, e := range entries {
		if e.Name() == lockFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.Dir, e.Name())); err != nil {
			return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "removing stale entry %s", e.Name())
		}
	}
	return nil
}

// acquireLock blocks until it holds the exclusive advisory lock on
// <cache-dir>/.lock, grounded on the Flock-based daemon lock used
// elsewhere in this codebase.
func (c *Cache) acquireLock() (*os.File, error) {
	path := filepath.Join(c.Dir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o640)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (c *Cache) releaseLock(f *os.File) {
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	f.Close()
}

// CopyNativeDependency copies src into the app-cache directory under the
// requested renamed-to name, used for Native-Dependencies entries that
// declare a target filename distinct from their source path.
func CopyNativeDependency(cacheDir, src, renameTo string) error {
	dest := filepath.Join(cacheDir, renameTo)
	in, err := os.Open(src)
	if err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "opening native dependency %s", src)
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "creating dir for native dependency %s", dest)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o750)
	if err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "creating native dependency target %s", dest)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return capsuleerr.Wrap(capsuleerr.CacheIOError, err, "copying native dependency to %s", dest)
	}
	return nil
}
