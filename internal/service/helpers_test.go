package service

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

	"github.com/Huy1073hello/jbundle/internal/build"
	"github.com/Huy1073hello/jbundle/internal/jdk"
	"github.com/Huy1073hello/jbundle/internal/jlink"
	"github.com/Huy1073hello/jbundle/internal/testutil"
	"github.com/Huy1073hello/jbundle/internal/tool"
	"github.com/klauspost/compress/gzip"
)

// runtimeArchive is a vendor-style tar.gz with a version-named wrapper directory.
func runtimeArchive(t *testing.T) []byte {
	t.Helper()

	files := []struct {
		name string
		body string
		dir  bool
	}{
		{name: "jdk-21.0.5+11/", dir: true},
		{name: "jdk-21.0.5+11/bin/", dir: true},
		{name: "jdk-21.0.5+11/bin/java", body: "#!/bin/sh\n"},
		{name: "jdk-21.0.5+11/bin/jdeps", body: "#!/bin/sh\n"},
		{name: "jdk-21.0.5+11/bin/jlink", body: "#!/bin/sh\n"},
		{name: "jdk-21.0.5+11/release", body: "JAVA_VERSION=\"21.0.5\"\n"},
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, f := range files {
		hdr := &tar.Header{Name: f.name, Mode: 0755, Typeflag: tar.TypeReg, Size: int64(len(f.body))}
		if f.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if !f.dir {
			if _, err := tw.Write([]byte(f.body)); err != nil {
				t.Fatal(err)
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

// catalogServer serves one release and its archive and counts every request.
type catalogServer struct {
	*httptest.Server
	requests atomic.Int32
}

func newCatalogServer(t *testing.T) *catalogServer {
	t.Helper()

	archive := runtimeArchive(t)
	sum := sha256.Sum256(archive)
	name := "OpenJDK21U-jdk_hotspot_21.0.5_11.tar.gz"

	s := &catalogServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/assets/latest/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"binary": {"package": {"link": "%s/files/%s", "checksum": "%s", "size": %d, "name": "%s"}}, "release_name": "jdk-21.0.5+11", "version": {"major": 21}}]`,
			s.URL, name, hex.EncodeToString(sum[:]), len(archive), name)
	})
	mux.HandleFunc("/files/"+name, func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// fakeTools answers calls to the external tools. jlink creates the requested
// runtime directory with a java launcher inside; lein leaves an uberjar in
// target/uberjar while clojure succeeds without producing one.
type fakeTools struct {
	jdepsFails bool
	jdepsOut   string
}

func (f *fakeTools) handle(cmd tool.Command) (*tool.Result, error) {
	switch filepath.Base(cmd.Name) {
	case "jdeps":
		if f.jdepsFails {
			res := &tool.Result{Stderr: []byte("Error: missing dependencies"), ExitCode: 1}
			return res, &tool.ExitError{Command: cmd.String(), ExitCode: 1, Output: "Error: missing dependencies"}
		}
		return &tool.Result{Stdout: []byte(f.jdepsOut)}, nil
	case "jlink":
		var out string
		for i, arg := range cmd.Args {
			if arg == "--output" && i+1 < len(cmd.Args) {
				out = cmd.Args[i+1]
			}
		}
		if out == "" {
			return nil, fmt.Errorf("jlink called without --output")
		}
		if err := os.MkdirAll(filepath.Join(out, "bin"), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(out, "bin", "java"), []byte("#!/bin/sh\necho linked\n"), 0755); err != nil {
			return nil, err
		}
		return &tool.Result{}, nil
	case "lein":
		dir := filepath.Join(cmd.Dir, "target", "uberjar")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, "app-0.1.0-standalone.jar"), []byte("PK\x03\x04 built jar"), 0644); err != nil {
			return nil, err
		}
		return &tool.Result{}, nil
	case "clojure":
		return &tool.Result{}, nil
	default:
		return nil, fmt.Errorf("unexpected command %s", cmd.String())
	}
}

// harness wires a BuildService to a fake catalog and fake external tools.
type harness struct {
	service *BuildService
	catalog *catalogServer
	runner  *tool.FakeRunner
	tools   *fakeTools
	logger  *testutil.RecordingLogger
	env     *testutil.Env
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	env := testutil.SetupTestEnv(t)
	catalog := newCatalogServer(t)
	logger := testutil.NewRecordingLogger()
	tools := &fakeTools{jdepsOut: "java.base,java.sql\n"}
	runner := &tool.FakeRunner{Handler: tools.handle}

	manager, err := jdk.NewManager(jdk.Config{
		CacheDir:   env.CacheDir,
		CatalogURL: catalog.URL + "/v3",
		HTTPClient: catalog.Client(),
		Logger:     logger,
	})
	if err != nil {
		t.Fatal(err)
	}

	svc := NewBuildService(manager, jlink.New(runner, logger), build.NewBuilder(runner, logger), nil, logger).
		WithTempRoot(t.TempDir())

	return &harness{
		service: svc,
		catalog: catalog,
		runner:  runner,
		tools:   tools,
		logger:  logger,
		env:     env,
	}
}

func writeJar(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("PK\x03\x04 fake jar"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
