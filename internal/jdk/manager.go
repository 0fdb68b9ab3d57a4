package jdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Huy1073hello/jbundle/internal/config"
	"github.com/Huy1073hello/jbundle/internal/filelock"
	"github.com/Huy1073hello/jbundle/internal/platform"
	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Manager orchestrates runtime lookup, download, verification, and caching.
type Manager struct {
	catalog    *Catalog
	downloader *Downloader
	verifier   *Verifier
	cache      *Cache
	logger     config.Logger
	progress   ProgressFunc
	lockOpts   filelock.Options
}

// Config holds configuration for the runtime manager
type Config struct {
	// CacheDir is the cache root (required)
	CacheDir string
	// CatalogURL is the Adoptium API root (default DefaultCatalogURL)
	CatalogURL string
	// HTTPClient is used for catalog and download requests (default: client with Timeout)
	HTTPClient *http.Client
	// Timeout bounds each HTTP request when HTTPClient is nil (default 10m)
	Timeout time.Duration
	// Keyring enables detached signature verification when non-empty
	Keyring openpgp.EntityList
	// Logger receives progress messages (default: no-op)
	Logger config.Logger
	// Progress is called while an archive downloads
	Progress ProgressFunc
	// Lock tunes the per-key cache lock
	Lock filelock.Options
}

// NewManager creates a new runtime manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("CacheDir is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Manager{
		catalog:    NewCatalog(cfg.CatalogURL, client),
		downloader: NewDownloader(cfg.CacheDir, client),
		verifier:   NewVerifier(cfg.Keyring),
		cache:      NewCache(cfg.CacheDir),
		logger:     config.OrNop(cfg.Logger),
		progress:   cfg.Progress,
		lockOpts:   cfg.Lock,
	}, nil
}

// Cache returns the manager's runtime cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Ensure returns the path of a cached runtime tree for (version, target),
// downloading and extracting it first when needed.
//
// Population of one key is serialized across processes by a lock file; the
// cache is checked again once the lock is held so that a concurrent run's
// result is reused instead of being overwritten.
func (m *Manager) Ensure(ctx context.Context, version int, target platform.Target) (string, error) {
	if dir, ok := m.cache.Lookup(version, target); ok {
		m.logger.Info("using cached runtime", "version", version, "target", target.String(), "path", dir)
		return dir, nil
	}

	if err := os.MkdirAll(m.cache.Root(), 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	key := Key(version, target)
	lock, err := filelock.Acquire(ctx, m.cache.Root(), key, m.lockOpts)
	if err != nil {
		return "", fmt.Errorf("lock runtime cache: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			m.logger.Warn("failed to release cache lock", "key", key, "error", err)
		}
	}()
	stop := lock.KeepAlive(m.lockOpts.RefreshInterval())
	defer stop()

	if dir, ok := m.cache.Lookup(version, target); ok {
		m.logger.Info("runtime was cached by another run", "version", version, "target", target.String(), "path", dir)
		return dir, nil
	}

	release, err := m.catalog.Latest(ctx, version, target)
	if err != nil {
		return "", fmt.Errorf("resolve runtime: %w", err)
	}
	m.logger.Info("resolved runtime", "release", release.Name, "file", release.FileName, "size", release.Size)

	archive, err := m.downloader.Fetch(ctx, release, m.progress)
	if err != nil {
		return "", fmt.Errorf("fetch runtime: %w", err)
	}
	m.logger.Debug("runtime archive verified", "path", archive, "sha256", release.Checksum)

	if err := m.verifySignature(ctx, release, archive); err != nil {
		return "", err
	}

	dir, err := m.cache.Store(version, target, archive)
	if err != nil {
		return "", fmt.Errorf("cache runtime: %w", err)
	}
	m.logger.Info("runtime cached", "path", dir)

	return dir, nil
}

// verifySignature checks the release's detached signature when a keyring is configured.
// A failed check deletes the archive.
func (m *Manager) verifySignature(ctx context.Context, release *Release, archive string) error {
	if !m.verifier.HasKeyring() {
		return nil
	}
	if release.SignatureURL == "" {
		m.logger.Warn("keyring configured but the release publishes no signature", "file", release.FileName)
		return nil
	}

	sigPath, err := m.downloader.FetchSignature(ctx, release)
	if err != nil {
		return fmt.Errorf("fetch runtime signature: %w", err)
	}
	defer os.Remove(sigPath)

	if err := m.verifier.VerifySignature(archive, sigPath); err != nil {
		os.Remove(archive)
		if !errors.Is(err, ErrSignatureInvalid) {
			err = fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
		return fmt.Errorf("verify runtime signature: %w", err)
	}

	m.logger.Info("runtime signature verified", "file", release.FileName)
	return nil
}
