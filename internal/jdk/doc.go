// Package jdk acquires Java runtimes for packaging.
//
// It resolves a runtime major version and platform target to a single release
// in the Adoptium catalog, downloads the archive while hashing it, verifies
// the digest (and optionally a detached OpenPGP signature), and extracts the
// archive into a per-version, per-platform cache directory.
//
// # Cache layout
//
// All state lives under one root directory passed in by the caller:
//
//	<root>/
//	├── OpenJDK21U-jdk_x64_linux_hotspot_21.0.5_11.tar.gz   downloaded archive
//	├── runtime-21-linux-x86_64/                            extracted, flattened tree
//	└── runtime-21-linux-x86_64.lock                        held while populating
//
// A cache entry is trusted once its directory exists. Entries are always
// recreated wholesale, never patched.
//
// # Security
//
// Archives are accepted only when their SHA256 digest equals the digest the
// catalog declared. A file that fails verification is deleted before the
// error is reported. When a keyring is configured and the catalog lists a
// signature, the detached signature is checked with ProtonMail's go-crypto
// OpenPGP implementation.
//
// Extraction rejects entries (and symlink targets) that would escape the
// destination directory.
package jdk
