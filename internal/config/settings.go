package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings are the machine-wide settings shared by every packaging run.
type Settings struct {
	// CacheDir is the root of the runtime cache (downloaded archives and extracted trees)
	CacheDir string
	// CatalogURL is the base URL of the runtime release catalog API
	CatalogURL string
	// JavaVersion is the default runtime major version
	JavaVersion int
	// HTTPTimeout bounds a single catalog query or archive download
	HTTPTimeout time.Duration
	// Debug enables debug-level logging
	Debug bool
}

// DefaultCacheDir returns ~/.jbundle/cache.
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".jbundle", "cache"), nil
}

// LoadSettings resolves settings from JBUNDLE_* environment variables over built-in defaults.
func LoadSettings() (*Settings, error) {
	cacheDir, err := DefaultCacheDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyCacheDir, cacheDir)
	v.SetDefault(keyCatalogURL, defaultCatalogURL)
	v.SetDefault(keyJavaVersion, DefaultJavaVersion)
	v.SetDefault(keyHTTPTimeout, 10*time.Minute)
	v.SetDefault(keyDebug, false)

	settings := &Settings{
		CacheDir:    expandHome(v.GetString(keyCacheDir)),
		CatalogURL:  strings.TrimRight(v.GetString(keyCatalogURL), "/"),
		JavaVersion: v.GetInt(keyJavaVersion),
		HTTPTimeout: v.GetDuration(keyHTTPTimeout),
		Debug:       v.GetBool(keyDebug),
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks that settings are usable.
func (s *Settings) Validate() error {
	if s.CacheDir == "" {
		return fmt.Errorf("%s_CACHE_DIR must not be empty", envPrefix)
	}
	if s.CatalogURL == "" {
		return fmt.Errorf("%s_CATALOG_URL must not be empty", envPrefix)
	}
	if s.JavaVersion <= 0 {
		return fmt.Errorf("%s_JAVA_VERSION must be a positive integer, got %d", envPrefix, s.JavaVersion)
	}
	if s.HTTPTimeout <= 0 {
		return fmt.Errorf("%s_HTTP_TIMEOUT must be positive, got %s", envPrefix, s.HTTPTimeout)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
