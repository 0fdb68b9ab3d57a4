package jdk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/Huy1073hello/jbundle/internal/platform"
	"github.com/Huy1073hello/jbundle/internal/tool"
)

// bundleDir is the top directory of a macOS .jdk bundle's payload.
const bundleDir = "Contents"

// flattenTemp is the scratch name used while hoisting a wrapper directory.
const flattenTemp = ".jbundle-flatten"

// Cache is the on-disk store of extracted runtime trees, keyed by
// major version and platform target.
type Cache struct {
	root      string
	extractor *Extractor
}

// NewCache creates a cache rooted at root.
func NewCache(root string) *Cache {
	return &Cache{root: root, extractor: NewExtractor()}
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Key returns the cache entry name for (version, target): runtime-<version>-<os>-<arch>.
func Key(version int, target platform.Target) string {
	return fmt.Sprintf("runtime-%d-%s-%s", version, target.OS, target.Arch)
}

// Path returns the directory for (version, target), whether or not it exists.
func (c *Cache) Path(version int, target platform.Target) string {
	return filepath.Join(c.root, Key(version, target))
}

// Lookup returns the cached tree for (version, target) if its directory exists.
// Contents are not re-verified; the cache is trusted once written.
func (c *Cache) Lookup(version int, target platform.Target) (string, bool) {
	dir := c.Path(version, target)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// Store extracts archivePath as the entry for (version, target).
// The archive is unpacked and flattened in a hidden sibling directory that
// is renamed into place only once complete, so Lookup never observes a
// partial tree. Any existing directory at that key is replaced.
func (c *Cache) Store(version int, target platform.Target, archivePath string) (string, error) {
	key := Key(version, target)
	dest := filepath.Join(c.root, key)
	tmp := filepath.Join(c.root, "."+key+".tmp-"+uuid.NewString())

	if err := os.MkdirAll(tmp, 0755); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			os.RemoveAll(tmp)
		}
	}()

	if err := c.extractor.Extract(archivePath, tmp); err != nil {
		return "", err
	}

	if err := Flatten(tmp); err != nil {
		return "", fmt.Errorf("%w: flatten: %w", ErrExtract, err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("remove stale runtime: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("install runtime: %w", err)
	}

	cleanupNeeded = false
	return dest, nil
}

// Flatten repeatedly hoists the contents of dir's only child up one level
// while that child is a wrapper directory, removing each emptied wrapper.
// It stops at a root holding several entries or a single file, and at a
// lone bin or macOS bundle Contents directory. The result is a fixpoint:
// applying Flatten again changes nothing.
func Flatten(dir string) error {
	for {
		hoisted, err := flattenOnce(dir)
		if err != nil || !hoisted {
			return err
		}
	}
}

func flattenOnce(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	if len(entries) != 1 || !entries[0].IsDir() {
		return false, nil
	}

	name := entries[0].Name()
	if name == bundleDir || name == "bin" || name == flattenTemp {
		return false, nil
	}

	temp := filepath.Join(dir, flattenTemp)
	if err := os.Rename(filepath.Join(dir, name), temp); err != nil {
		return false, err
	}

	children, err := os.ReadDir(temp)
	if err != nil {
		return false, err
	}
	for _, child := range children {
		if err := os.Rename(filepath.Join(temp, child.Name()), filepath.Join(dir, child.Name())); err != nil {
			return false, err
		}
	}

	return true, os.Remove(temp)
}

// FindBin locates a runtime tool, preferring the macOS bundle layout
// (Contents/Home/bin/<name>) over the flat layout (bin/<name>).
func FindBin(runtimeDir, name string) (string, error) {
	candidates := []string{
		filepath.Join(runtimeDir, bundleDir, "Home", "bin", name),
		filepath.Join(runtimeDir, "bin", name),
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", tool.ErrNotFound, name, runtimeDir)
}

// Entry describes one item in the cache root.
type Entry struct {
	Name  string
	Size  int64
	IsDir bool
}

// Entries lists the cache root, largest first. A missing root yields no entries.
func (c *Cache) Entries() ([]Entry, error) {
	items, err := os.ReadDir(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		size, err := DirSize(filepath.Join(c.root, item.Name()))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: item.Name(), Size: size, IsDir: item.IsDir()})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Size != entries[j].Size {
			return entries[i].Size > entries[j].Size
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Size returns the total bytes under the cache root.
func (c *Cache) Size() (int64, error) {
	return DirSize(c.root)
}

// Clean removes the whole cache root and reports how many bytes it held.
func (c *Cache) Clean() (int64, error) {
	size, err := c.Size()
	if err != nil {
		return 0, err
	}
	if err := os.RemoveAll(c.root); err != nil {
		return 0, fmt.Errorf("remove cache dir: %w", err)
	}
	return size, nil
}

// DirSize sums regular file sizes under path without following symlinks.
// A missing path has size zero.
func DirSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measure %s: %w", path, err)
	}
	return total, nil
}
