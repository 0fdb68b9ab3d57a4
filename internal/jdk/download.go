package jdk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Downloader fetches runtime archives into the cache root.
// It does not retry; retry policy belongs to the caller.
type Downloader struct {
	client    *http.Client
	cacheDir  string
	userAgent string
}

// NewDownloader creates a downloader writing into cacheDir. A nil client uses http.DefaultClient.
func NewDownloader(cacheDir string, client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:    client,
		cacheDir:  cacheDir,
		userAgent: DefaultUserAgent,
	}
}

// ArchivePath returns where the archive for rel is stored.
func (d *Downloader) ArchivePath(rel *Release) (string, error) {
	name := rel.FileName
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: invalid archive file name %q", ErrDownload, rel.FileName)
	}
	return filepath.Join(d.cacheDir, name), nil
}

// Fetch returns a verified local copy of rel's archive.
//
// An existing file whose digest matches is reused without network access.
// Otherwise the archive is streamed to a temporary file while being hashed,
// and renamed into place only after the digest matches. On mismatch the
// downloaded bytes are deleted and a *ChecksumError is returned.
func (d *Downloader) Fetch(ctx context.Context, rel *Release, progress ProgressFunc) (string, error) {
	if rel == nil {
		return "", fmt.Errorf("release is nil")
	}
	if strings.TrimSpace(rel.Checksum) == "" {
		return "", fmt.Errorf("%w: release %s has no checksum to verify", ErrDownload, rel.FileName)
	}

	dest, err := d.ArchivePath(rel)
	if err != nil {
		return "", err
	}

	if fileExists(dest) {
		actual, err := FileSHA256(dest)
		if err == nil && strings.EqualFold(actual, rel.Checksum) {
			return dest, nil
		}
		// Stale or corrupt leftover from an earlier run
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("remove stale archive: %w", err)
		}
	}

	if err := d.download(ctx, rel.DownloadURL, dest, rel.Size, rel.Checksum, progress); err != nil {
		return "", err
	}
	return dest, nil
}

// FetchSignature downloads rel's detached signature next to the archive.
func (d *Downloader) FetchSignature(ctx context.Context, rel *Release) (string, error) {
	if rel == nil || rel.SignatureURL == "" {
		return "", fmt.Errorf("no signature URL available")
	}

	archive, err := d.ArchivePath(rel)
	if err != nil {
		return "", err
	}
	dest := archive + ".sig"

	if err := d.download(ctx, rel.SignatureURL, dest, 0, "", nil); err != nil {
		return "", fmt.Errorf("download signature: %w", err)
	}
	return dest, nil
}

// download streams url into destPath through a .tmp file. When expected is
// set, the SHA256 of the received bytes must match it before the rename.
func (d *Downloader) download(ctx context.Context, url, destPath string, declaredSize int64, expected string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrDownload, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: execute request: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code %d for %s", ErrDownload, resp.StatusCode, url)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("%w: create dest dir: %w", ErrDownload, err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrDownload, err)
	}

	// Track whether we need to clean up the temp file
	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	total := declaredSize
	if resp.ContentLength > 0 {
		total = resp.ContentLength
	}

	hasher := sha256.New()
	var dst io.Writer = io.MultiWriter(tmpFile, hasher)
	if progress != nil {
		progress(0, total)
		dst = &progressWriter{w: dst, total: total, report: progress}
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("%w: copy response body: %w", ErrDownload, err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", ErrDownload, err)
	}

	if expected != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, expected) {
			return &ChecksumError{File: filepath.Base(destPath), Expected: strings.ToLower(expected), Actual: actual}
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("%w: rename temp file: %w", ErrDownload, err)
	}

	cleanupNeeded = false
	return nil
}

// progressWriter reports cumulative bytes after every write.
type progressWriter struct {
	w      io.Writer
	done   int64
	total  int64
	report ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.done += int64(n)
	p.report(p.done, p.total)
	return n, err
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
