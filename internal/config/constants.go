package config

// Lua schema field names and globals
const (
	luaGlobalJbundle        = "jbundle"
	luaFieldJavaVersion     = "java_version"
	luaFieldOutput          = "output"
	luaFieldTarget          = "target"
	luaFieldJVMArgs         = "jvm_args"
	luaFieldFallbackModules = "fallback_modules"
	luaFieldKeyring         = "keyring"
)

// ProjectFileName is the optional per-project config file looked up in the input directory.
const ProjectFileName = "jbundle.lua"

// Environment variables read by LoadSettings (prefix JBUNDLE_).
const (
	envPrefix         = "JBUNDLE"
	keyCacheDir       = "cache_dir"
	keyCatalogURL     = "catalog_url"
	keyJavaVersion    = "java_version"
	keyHTTPTimeout    = "http_timeout"
	keyDebug          = "debug"
	defaultCatalogURL = "https://api.adoptium.net/v3"
)

// DefaultJavaVersion is the runtime major version used when nothing else is configured.
const DefaultJavaVersion = 21
