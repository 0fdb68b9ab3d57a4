package pack

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"mvdan.cc/sh/v3/syntax"
)

// ErrInvalidLauncher is returned when the rendered launcher is not valid POSIX shell.
var ErrInvalidLauncher = errors.New("invalid launcher script")

// PayloadMarker is the last line of the launcher; payload bytes follow it directly.
const PayloadMarker = "# --- PAYLOAD BELOW ---"

// The launcher extracts the payload by taking the file's last PAYLOAD_SIZE
// bytes, so it works whatever length the rendered script ends up with.
var launcherTemplate = template.Must(template.New("launcher").Parse(`#!/bin/sh
set -e
CACHE_ID="{{.Fingerprint}}"
CACHE_DIR="${JBUNDLE_CACHE_DIR:-${HOME}/.jbundle/cache}/${CACHE_ID}"
PAYLOAD_SIZE={{.PayloadSize}}

if [ ! -d "$CACHE_DIR/runtime" ]; then
    mkdir -p "$CACHE_DIR"
    echo "Extracting runtime (first run)..." >&2
    tail -c "$PAYLOAD_SIZE" "$0" | tar xzf - -C "$CACHE_DIR"
fi

exec "$CACHE_DIR/runtime/bin/java"{{.JVMArgs}} -jar "$CACHE_DIR/app.jar" "$@"
exit 0
` + PayloadMarker + "\n"))

var fingerprintPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// RenderLauncher returns the launcher preamble for a payload of payloadSize
// bytes identified by fingerprint. jvmArgs are embedded verbatim, separated
// by spaces, so shell quoting inside an argument is preserved as written.
// The result is parsed as POSIX shell before it is returned.
func RenderLauncher(fingerprint string, payloadSize int64, jvmArgs []string) ([]byte, error) {
	if !fingerprintPattern.MatchString(fingerprint) {
		return nil, fmt.Errorf("%w: fingerprint %q is not %d lowercase hex characters", ErrInvalidLauncher, fingerprint, FingerprintLen)
	}
	if payloadSize <= 0 {
		return nil, fmt.Errorf("%w: payload size must be positive, got %d", ErrInvalidLauncher, payloadSize)
	}

	args := ""
	for _, arg := range jvmArgs {
		if strings.ContainsAny(arg, "\r\n") {
			return nil, fmt.Errorf("%w: jvm argument %q contains a line break", ErrInvalidLauncher, arg)
		}
		args += " " + arg
	}

	var buf bytes.Buffer
	err := launcherTemplate.Execute(&buf, struct {
		Fingerprint string
		PayloadSize int64
		JVMArgs     string
	}{fingerprint, payloadSize, args})
	if err != nil {
		return nil, fmt.Errorf("render launcher: %w", err)
	}

	if err := ValidateLauncher(buf.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ValidateLauncher parses script as POSIX shell.
func ValidateLauncher(script []byte) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err := parser.Parse(bytes.NewReader(script), "launcher"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLauncher, err)
	}
	return nil
}
