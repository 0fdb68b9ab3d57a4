// Package pack assembles the self-extracting executable: a gzip-compressed
// tar payload holding the minimized runtime and the application jar, and a
// POSIX shell launcher prepended to it.
package pack

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

const (
	// PayloadFileName is the payload archive's name inside the workspace.
	PayloadFileName = "payload.tar.gz"
	// RuntimeEntry is the top-level payload directory holding the runtime.
	RuntimeEntry = "runtime"
	// AppJarEntry is the payload name of the application jar, whatever its original name.
	AppJarEntry = "app.jar"
	// FingerprintLen is the number of hex characters in a payload fingerprint.
	FingerprintLen = 16
)

// CreatePayload writes workDir/payload.tar.gz containing runtimeDir under
// runtime/ followed by jarPath as app.jar.
func CreatePayload(runtimeDir, jarPath, workDir string) (string, error) {
	info, err := os.Stat(runtimeDir)
	if err != nil {
		return "", fmt.Errorf("stat runtime: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("runtime %s is not a directory", runtimeDir)
	}

	payloadPath := filepath.Join(workDir, PayloadFileName)
	file, err := os.Create(payloadPath)
	if err != nil {
		return "", fmt.Errorf("create payload: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		file.Close()
		if cleanupNeeded {
			os.Remove(payloadPath)
		}
	}()

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)

	if err := addTree(tw, runtimeDir, RuntimeEntry); err != nil {
		return "", err
	}
	if err := addFile(tw, jarPath, AppJarEntry, 0644); err != nil {
		return "", err
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("finish gzip stream: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close payload: %w", err)
	}

	cleanupNeeded = false
	return payloadPath, nil
}

// addTree adds every entry under root to tw, renamed under prefix.
// Symlinks are stored as links, not followed.
func addTree(tw *tar.Writer, root, prefix string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := prefix
		if rel != "." {
			name = prefix + "/" + filepath.ToSlash(rel)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return fmt.Errorf("read symlink %s: %w", path, err)
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("tar header for %s: %w", path, err)
		}
		hdr.Name = name
		if info.IsDir() {
			hdr.Name += "/"
		}
		clearOwnership(hdr)

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header %s: %w", name, err)
		}

		if !info.Mode().IsRegular() {
			return nil
		}
		return copyInto(tw, path)
	})
}

// addFile adds a single regular file to tw under name.
func addFile(tw *tar.Writer, path, name string, mode int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     info.Size(),
		Mode:     mode,
		ModTime:  info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	return copyInto(tw, path)
}

func copyInto(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}

// clearOwnership drops build-host user and group details from hdr.
func clearOwnership(hdr *tar.Header) {
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
}

// Fingerprint returns the first 16 hex characters of the SHA256 of the file
// at path. It is a cache key, not a security credential.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:FingerprintLen], nil
}
