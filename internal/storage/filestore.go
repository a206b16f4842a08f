// Package storage persists page artifacts as flat files under a root directory.
//
// Each artifact lives at <root>/<Encode(id)>. There is no index or metadata
// file: the presence of the file is the only state.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// artifactMode is the permission of newly created artifacts.
const artifactMode fs.FileMode = 0o644

// FileStore handles all file system operations for one storage root.
//
// It holds no mutable state and is safe for concurrent use. Writes are
// atomic (temp file then rename) so a reader or a concurrent writer never
// observes a partially written artifact.
type FileStore struct {
	rootDir string
}

// NewFileStore initializes a FileStore with the given root directory,
// creating it if needed.
func NewFileStore(rootDir string) (*FileStore, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil { //nolint:gosec // G301: served by the static file server
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FileStore{rootDir: filepath.Clean(rootDir)}, nil
}

// Root returns the root directory path.
func (s *FileStore) Root() string {
	return s.rootDir
}

// Path returns the artifact path for id under this store's root.
func (s *FileStore) Path(id string) string {
	return Resolve(s.rootDir, id)
}

// Exists reports whether a regular file exists at path.
func (s *FileStore) Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// Read returns the content of the artifact at path.
func (s *FileStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from Resolve
	if err != nil {
		return nil, newPathError("read", path, err)
	}
	return data, nil
}

// Write creates or fully replaces the artifact at path with body.
//
// The parent directory must already exist. A new artifact is created with
// mode 0o644 so the static file server and other local users can read it; an
// existing artifact keeps its mode.
func (s *FileStore) Write(path string, body []byte) error {
	if err := refuseDir("write", path); err != nil {
		return err
	}
	_, statErr := os.Lstat(path)
	if err := atomic.WriteFile(path, bytes.NewReader(body)); err != nil {
		// A missing parent directory surfaces as ENOENT; that is not the
		// artifact being absent, so writes never report KindNotFound.
		return &Error{Op: "write", Path: path, Kind: KindOther, Err: err}
	}
	// atomic.WriteFile creates its temp file 0o600 and only copies the mode
	// of a file it replaces.
	if errors.Is(statErr, fs.ErrNotExist) {
		if err := os.Chmod(path, artifactMode); err != nil { //nolint:gosec // G302: artifacts are public
			return &Error{Op: "chmod", Path: path, Kind: KindOther, Err: err}
		}
	}
	return nil
}

// Delete removes the artifact at path.
//
// Returns an error of kind KindNotFound if it does not exist.
func (s *FileStore) Delete(path string) error {
	if err := refuseDir("delete", path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return newPathError("delete", path, err)
	}
	return nil
}

func refuseDir(op, path string) error {
	if fi, err := os.Lstat(path); err == nil && fi.IsDir() {
		return &Error{Op: op, Path: path, Kind: KindOther, Err: ErrIsDir}
	}
	return nil
}

func newPathError(op, path string, err error) *Error {
	k := KindOther
	if errors.Is(err, fs.ErrNotExist) {
		k = KindNotFound
	}
	return &Error{Op: op, Path: path, Kind: k, Err: err}
}
