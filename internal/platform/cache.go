package platform

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ProbeCache memoizes `java -version` probe results across capsule
// invocations, keyed by java home and its bin/java mtime, so repeated
// launches of the same capsule don't re-exec every installed runtime.
// This does not change the Runtime Selector's observable result, only
// how cheaply the candidate set is built.
type ProbeCache struct {
	db *sql.DB
}

// OpenProbeCache opens (creating and migrating if needed) the runtime
// probe cache database under cacheDir, grounded on the WAL-mode sqlite
// setup used for the app's own session database.
func OpenProbeCache(cacheDir string) (*ProbeCache, error) {
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(cacheDir, "runtime-probe.db")
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening probe cache db: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(sqlDB, &sqlite.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("constructing migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("constructing migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &ProbeCache{db: sqlDB}, nil
}

func (c *ProbeCache) Close() error { return c.db.Close() }

// Lookup returns a previously cached Runtime for javaHome if its
// bin/java mtime still matches what was recorded.
func (c *ProbeCache) Lookup(ctx context.Context, javaHome string, mtimeUnix int64) (Runtime, bool) {
	row := c.db.QueryRowContext(ctx,
		`SELECT version_raw, is_jdk FROM runtime_probe_cache WHERE java_home = ? AND mtime_unix = ?`,
		javaHome, mtimeUnix)
	var raw string
	var isJDK int
	if err := row.Scan(&raw, &isJDK); err != nil {
		return Runtime{}, false
	}
	v, err := ParseVersion(raw)
	if err != nil {
		return Runtime{}, false
	}
	return Runtime{Home: javaHome, Version: v, IsJDK: isJDK != 0}, true
}

// Store records a probe result for later reuse.
func (c *ProbeCache) Store(ctx context.Context, r Runtime, mtimeUnix, probedAt int64) error {
	isJDK := 0
	if r.IsJDK {
		isJDK = 1
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runtime_probe_cache (java_home, mtime_unix, version_raw, is_jdk, probed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(java_home) DO UPDATE SET mtime_unix=excluded.mtime_unix,
		   version_raw=excluded.version_raw, is_jdk=excluded.is_jdk, probed_at=excluded.probed_at`,
		r.Home, mtimeUnix, r.Version.Raw, isJDK, probedAt)
	return err
}

// ProbeCached resolves javaHome's Runtime, consulting and populating
// cache before falling back to an actual exec of `java -version`.
func (p *Prober) ProbeCached(ctx context.Context, cache *ProbeCache, javaHome string) (Runtime, error) {
	binJava := filepath.Join(javaHome, "bin", "java")
	if CurrentOS() == Windows {
		binJava += ".exe"
	}
	fi, err := os.Stat(binJava)
	if err != nil {
		return Runtime{}, err
	}
	mtime := fi.ModTime().Unix()

	if cache != nil {
		if r, ok := cache.Lookup(ctx, javaHome, mtime); ok {
			return r, nil
		}
	}

	r, err := p.Probe(ctx, javaHome)
	if err != nil {
		return Runtime{}, err
	}
	if cache != nil {
		if err := cache.Store(ctx, r, mtime, time.Now().Unix()); err != nil {
			slog.WarnContext(ctx, "platform.ProbeCache.Store failed", "error", err)
		}
	}
	return r, nil
}
