// Package artifact manages the on-disk cache layout: deterministic cache
// paths, canonical config keys, and atomic artifact publication.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when an explicitly requested artifact is absent.
// Callers probing whether something was already computed should use Exists.
var ErrNotFound = errors.New("artifact not found")

// DefaultRoot is the default cache root, resolved against cwd.
const DefaultRoot = ".autopsy"

// Store is the cache root for one workspace. All derived artifacts
// (registry DB, overview tables, pass-1 results) live under it, so the
// engine stays side-effect-scoped and testable.
type Store struct {
	root string
}

// NewStore returns a store rooted at root (DefaultRoot if empty).
// No directories are created until something is written.
func NewStore(root string) *Store {
	if root == "" {
		root = DefaultRoot
	}
	return &Store{root: root}
}

// Root returns the cache root path.
func (s *Store) Root() string { return s.root }

// DBPath returns the path of the measurement registry database.
func (s *Store) DBPath() string { return filepath.Join(s.root, "autopsy.db") }

// CachePath returns the deterministic artifact path for
// (measurementID, kind, key, suffix) and creates its parent directory.
// Safe to call repeatedly; the result depends only on the arguments.
func (s *Store) CachePath(measurementID, kind, key, suffix string) (string, error) {
	dir := filepath.Join(s.root, "artifacts", measurementID, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	return filepath.Join(dir, key+suffix), nil
}

// Exists reports whether an artifact file is present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteAtomic publishes data at path all-or-nothing: it writes a temporary
// file in the destination directory and renames it into place. Readers never
// observe a half-written artifact, and concurrent writers for the same key
// converge on a complete file.
func WriteAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// Publish runs write against a temporary path and renames the result into
// place on success. Used for artifacts that are streamed by an external
// writer (e.g. parquet) rather than built as a byte slice.
func Publish(path string, write func(tmpPath string) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()

	if err := write(tmpName); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}
