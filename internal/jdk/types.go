package jdk

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatchingRelease is returned when the catalog has no runtime for the request.
	ErrNoMatchingRelease = errors.New("no matching runtime release")
	// ErrDownload is returned for network and I/O failures while fetching.
	ErrDownload = errors.New("runtime download failed")
	// ErrChecksumMismatch is returned when downloaded bytes do not match the declared digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrSignatureInvalid is returned when a detached signature does not verify.
	ErrSignatureInvalid = errors.New("signature verification failed")
	// ErrUnknownArchiveFormat is returned for archive names that are neither tar.gz nor zip.
	ErrUnknownArchiveFormat = errors.New("unknown archive format")
	// ErrExtract is returned for corrupt archives and unsafe entries.
	ErrExtract = errors.New("archive extraction failed")
)

// Release identifies exactly one downloadable runtime archive.
// It is untrusted until its checksum has been verified against downloaded bytes.
type Release struct {
	// DownloadURL is the archive location
	DownloadURL string
	// Checksum is the hex-encoded SHA256 digest of the archive
	Checksum string
	// Size is the declared archive size in bytes (progress display only)
	Size int64
	// FileName is the archive file name, e.g. OpenJDK21U-jdk_x64_linux_hotspot_21.0.5_11.tar.gz
	FileName string
	// SignatureURL is the detached OpenPGP signature location, if published
	SignatureURL string
	// Name is the vendor release name, e.g. jdk-21.0.5+11
	Name string
}

// ChecksumError reports a digest mismatch. It unwraps to ErrChecksumMismatch.
type ChecksumError struct {
	File     string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s:\nexpected: %s\nactual:   %s", e.File, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// ProgressFunc receives the number of bytes transferred so far and the
// expected total. total is zero or negative when unknown.
type ProgressFunc func(done, total int64)
