package jdk

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// archiveEntry is one file, directory, or symlink in a generated test archive.
type archiveEntry struct {
	name    string
	body    string
	mode    int64
	dir     bool
	symlink string
}

func buildTarGz(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode}
		switch {
		case e.dir:
			hdr.Typeflag = tar.TypeDir
			if hdr.Mode == 0 {
				hdr.Mode = 0755
			}
		case e.symlink != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.symlink
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
			if hdr.Mode == 0 {
				hdr.Mode = 0644
			}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write tar header: %v", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write tar body: %v", err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func buildZip(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		name := e.name
		if e.dir {
			name += "/"
		}
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		mode := os.FileMode(e.mode)
		if mode == 0 {
			mode = 0644
		}
		if e.dir {
			mode = os.ModeDir | 0755
		}
		hdr.SetMode(mode)

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if !e.dir {
			if _, err := w.Write([]byte(e.body)); err != nil {
				t.Fatalf("write zip entry: %v", err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// jdkTree is a minimal vendor-style archive layout with a version-named wrapper.
func jdkTree() []archiveEntry {
	return []archiveEntry{
		{name: "jdk-21.0.5+11", dir: true},
		{name: "jdk-21.0.5+11/bin", dir: true},
		{name: "jdk-21.0.5+11/bin/java", body: "#!/bin/sh\necho java\n", mode: 0755},
		{name: "jdk-21.0.5+11/bin/jlink", body: "#!/bin/sh\necho jlink\n", mode: 0755},
		{name: "jdk-21.0.5+11/lib", dir: true},
		{name: "jdk-21.0.5+11/lib/modules", body: "modules"},
		{name: "jdk-21.0.5+11/release", body: "JAVA_VERSION=\"21.0.5\"\n"},
	}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeTestFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

// fakeAdoptium serves one release descriptor and its archive, counting requests.
type fakeAdoptium struct {
	*httptest.Server
	archive  []byte
	name     string
	checksum string
	sig      []byte
	requests atomic.Int32
}

func newFakeAdoptium(t *testing.T, archive []byte, name string) *fakeAdoptium {
	t.Helper()

	f := &fakeAdoptium{archive: archive, name: name, checksum: sha256Hex(archive)}

	mux := http.NewServeMux()
	mux.HandleFunc("/v3/assets/latest/", func(w http.ResponseWriter, r *http.Request) {
		sigLink := ""
		if f.sig != nil {
			sigLink = fmt.Sprintf(`, "signature_link": "%s/files/%s.sig"`, f.URL, f.name)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"binary": {"package": {"link": "%s/files/%s", "checksum": "%s", "size": %d, "name": "%s"%s}}, "release_name": "jdk-21.0.5+11", "version": {"major": 21}}]`,
			f.URL, f.name, f.checksum, len(f.archive), f.name, sigLink)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		switch filepath.Base(r.URL.Path) {
		case f.name:
			w.Write(f.archive)
		case f.name + ".sig":
			w.Write(f.sig)
		default:
			http.NotFound(w, r)
		}
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAdoptium) CatalogURL() string {
	return f.URL + "/v3"
}
