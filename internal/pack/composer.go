package pack

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// ErrEmptyPayload is returned when the payload archive has no bytes.
var ErrEmptyPayload = errors.New("payload archive is empty")

// ExecutableMode is applied to the composed binary on POSIX hosts.
const ExecutableMode os.FileMode = 0755

// Binary describes a composed executable.
type Binary struct {
	Path         string
	Size         int64
	PreambleSize int64
	PayloadSize  int64
	Fingerprint  string
}

// Compose writes the launcher for payloadPath followed by the payload's raw
// bytes to outputPath.
//
// Bytes go to a temporary file in the destination directory that replaces
// outputPath only once fully written, so a failed run never leaves a partial
// binary at the destination.
func Compose(payloadPath, outputPath string, jvmArgs []string) (*Binary, error) {
	info, err := os.Stat(payloadPath)
	if err != nil {
		return nil, fmt.Errorf("stat payload: %w", err)
	}
	payloadSize := info.Size()
	if payloadSize == 0 {
		return nil, ErrEmptyPayload
	}

	fingerprint, err := Fingerprint(payloadPath)
	if err != nil {
		return nil, err
	}

	preamble, err := RenderLauncher(fingerprint, payloadSize, jvmArgs)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(outDir, "."+filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()

	cleanupNeeded := true
	defer func() {
		tmp.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(preamble); err != nil {
		return nil, fmt.Errorf("write launcher: %w", err)
	}

	payload, err := os.Open(payloadPath)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	copied, err := io.Copy(tmp, payload)
	payload.Close()
	if err != nil {
		return nil, fmt.Errorf("write payload: %w", err)
	}
	if copied != payloadSize {
		return nil, fmt.Errorf("payload changed while composing: wrote %d of %d bytes", copied, payloadSize)
	}

	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close output: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, ExecutableMode); err != nil {
			return nil, fmt.Errorf("set executable: %w", err)
		}
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return nil, fmt.Errorf("move output into place: %w", err)
	}
	cleanupNeeded = false

	return &Binary{
		Path:         outputPath,
		Size:         int64(len(preamble)) + payloadSize,
		PreambleSize: int64(len(preamble)),
		PayloadSize:  payloadSize,
		Fingerprint:  fingerprint,
	}, nil
}

// CreateBinary packs runtimeDir and jarPath into a payload inside workDir,
// then composes the executable at outputPath. An empty workDir uses a
// private temporary directory that is removed afterwards.
func CreateBinary(workDir, runtimeDir, jarPath, outputPath string, jvmArgs []string) (*Binary, error) {
	if workDir == "" {
		dir, err := os.MkdirTemp("", "jbundle-pack-*")
		if err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	payloadPath, err := CreatePayload(runtimeDir, jarPath, workDir)
	if err != nil {
		return nil, fmt.Errorf("create payload: %w", err)
	}
	defer os.Remove(payloadPath)

	return Compose(payloadPath, outputPath, jvmArgs)
}
