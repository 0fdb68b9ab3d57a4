package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Huy1073hello/jbundle/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser represents a Lua project config parser with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector skips injection of the platform table.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseString parses a Lua project config from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Project, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractProject(L)
}

// ParseFile reads and parses the Lua project config at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project config: %w", err)
	}

	project, err := p.ParseString(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return project, nil
}

// LoadProject parses dir/jbundle.lua when it exists.
// A missing file yields an empty Project and found == false.
func (p *Parser) LoadProject(ctx context.Context, dir string) (project *Project, found bool, err error) {
	path := filepath.Join(dir, ProjectFileName)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Project{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stat project config: %w", err)
	}
	if info.IsDir() {
		return nil, false, fmt.Errorf("%s is a directory", path)
	}

	project, err = p.ParseFile(ctx, path)
	if err != nil {
		return nil, true, err
	}
	return project, true, nil
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractProject extracts the project config from a Lua state.
// It expects a global "jbundle" table.
func extractProject(L *lua.LState) (*Project, error) {
	root := L.GetGlobal(luaGlobalJbundle)
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'jbundle' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	table := root.(*lua.LTable)
	project := &Project{}

	if v := table.RawGetString(luaFieldJavaVersion); v.Type() != lua.LTNil {
		version, err := extractInt(luaFieldJavaVersion, v)
		if err != nil {
			return nil, err
		}
		project.JavaVersion = version
	}

	var err error
	if project.Output, err = extractString(luaFieldOutput, table.RawGetString(luaFieldOutput)); err != nil {
		return nil, err
	}
	if project.Target, err = extractString(luaFieldTarget, table.RawGetString(luaFieldTarget)); err != nil {
		return nil, err
	}
	if project.Keyring, err = extractString(luaFieldKeyring, table.RawGetString(luaFieldKeyring)); err != nil {
		return nil, err
	}
	if project.JVMArgs, err = extractStringList(luaFieldJVMArgs, table.RawGetString(luaFieldJVMArgs)); err != nil {
		return nil, err
	}
	if project.FallbackModules, err = extractStringList(luaFieldFallbackModules, table.RawGetString(luaFieldFallbackModules)); err != nil {
		return nil, err
	}

	if err := project.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return project, nil
}

// extractInt reads a whole, positive Lua number.
func extractInt(field string, v lua.LValue) (int, error) {
	num, ok := v.(lua.LNumber)
	if !ok {
		return 0, &ParseError{
			Message: fmt.Sprintf("invalid '%s'", field),
			Detail:  fmt.Sprintf("expected number, got %s", v.Type()),
		}
	}

	f := float64(num)
	if f != math.Trunc(f) || f <= 0 || f > math.MaxInt32 {
		return 0, &ParseError{
			Message: fmt.Sprintf("invalid '%s'", field),
			Detail:  fmt.Sprintf("expected a positive integer, got %v", f),
		}
	}
	return int(f), nil
}

// extractString reads an optional string field. nil yields "".
func extractString(field string, v lua.LValue) (string, error) {
	switch v.Type() {
	case lua.LTNil:
		return "", nil
	case lua.LTString:
		return strings.TrimSpace(v.String()), nil
	default:
		return "", &ParseError{
			Message: fmt.Sprintf("invalid '%s'", field),
			Detail:  fmt.Sprintf("expected string, got %s", v.Type()),
		}
	}
}

// extractStringList reads an optional array of strings.
// Holes left by platform conditionals (platform.when(false, ...)) are skipped.
func extractStringList(field string, v lua.LValue) ([]string, error) {
	if v.Type() == lua.LTNil {
		return nil, nil
	}

	table, ok := v.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid '%s'", field),
			Detail:  fmt.Sprintf("expected list of strings, got %s", v.Type()),
		}
	}

	var values []string
	var badType lua.LValueType = lua.LTNil
	maxIndex := table.MaxN()
	for i := 1; i <= maxIndex; i++ {
		item := table.RawGetInt(i)
		switch item.Type() {
		case lua.LTNil:
			continue
		case lua.LTString:
			values = append(values, item.String())
		default:
			if badType == lua.LTNil {
				badType = item.Type()
			}
		}
	}

	if badType != lua.LTNil {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid '%s'", field),
			Detail:  fmt.Sprintf("expected list of strings, found %s", badType),
		}
	}

	return values, nil
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
