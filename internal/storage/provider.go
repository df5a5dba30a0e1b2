// Package storage provides the file persistence abstraction shared by the
// memory store and the report archive. Backends cover the local filesystem
// and S3; namespace-scoped providers keep components isolated within one
// backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileProvider is the storage surface components program against. Paths
// are relative, forward-slash separated keys.
type FileProvider interface {
	// Read returns the entire content of the file at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores data at path, creating the file when absent.
	Write(ctx context.Context, path string, data []byte) error

	// Exists reports whether a file is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes the file at path. Deleting an absent file is not an
	// error.
	Delete(ctx context.Context, path string) error

	// List returns the relative paths of all files under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// LocalFileProvider stores files under a base directory on disk.
type LocalFileProvider struct {
	baseDir string
}

// NewLocalFileProvider creates a provider rooted at baseDir.
func NewLocalFileProvider(baseDir string) *LocalFileProvider {
	return &LocalFileProvider{baseDir: baseDir}
}

// Read returns the content of a local file.
func (p *LocalFileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(p.baseDir, path)) //nolint:gosec // G304: path joins onto the trusted baseDir
}

// Write stores data, creating parent directories as needed.
func (p *LocalFileProvider) Write(ctx context.Context, path string, data []byte) error {
	fullPath := filepath.Join(p.baseDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	return os.WriteFile(fullPath, data, 0o600)
}

// Exists reports whether the file is present on disk.
func (p *LocalFileProvider) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(p.baseDir, path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Delete removes the file; a missing file counts as already deleted.
func (p *LocalFileProvider) Delete(ctx context.Context, path string) error {
	err := os.Remove(filepath.Join(p.baseDir, path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List walks the subtree under prefix and returns file paths relative to
// the provider root. An absent prefix yields an empty list.
func (p *LocalFileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	searchPath := filepath.Join(p.baseDir, prefix)

	result := []string{}
	err := filepath.WalkDir(searchPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(p.baseDir, path)
		if relErr != nil {
			return relErr
		}
		result = append(result, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return result, nil
}

// PrefixedFileProvider scopes another provider to a namespace so several
// components can share one backend without touching each other's keys.
type PrefixedFileProvider struct {
	provider FileProvider
	prefix   string
}

// NewPrefixedFileProvider wraps provider under the given prefix.
func NewPrefixedFileProvider(provider FileProvider, prefix string) *PrefixedFileProvider {
	return &PrefixedFileProvider{provider: provider, prefix: prefix}
}

// Read reads path within the namespace.
func (p *PrefixedFileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return p.provider.Read(ctx, p.join(path))
}

// Write writes path within the namespace.
func (p *PrefixedFileProvider) Write(ctx context.Context, path string, data []byte) error {
	return p.provider.Write(ctx, p.join(path), data)
}

// Exists checks path within the namespace.
func (p *PrefixedFileProvider) Exists(ctx context.Context, path string) (bool, error) {
	return p.provider.Exists(ctx, p.join(path))
}

// Delete deletes path within the namespace.
func (p *PrefixedFileProvider) Delete(ctx context.Context, path string) error {
	return p.provider.Delete(ctx, p.join(path))
}

// List lists files under prefix within the namespace, returning paths
// relative to the namespace root.
func (p *PrefixedFileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	files, err := p.provider.List(ctx, p.join(prefix))
	if err != nil {
		return nil, err
	}
	base := p.join("")
	result := make([]string, 0, len(files))
	for _, file := range files {
		if len(file) >= len(base) {
			result = append(result, file[len(base):])
		}
	}
	return result, nil
}

func (p *PrefixedFileProvider) join(path string) string {
	if p.prefix == "" {
		return path
	}
	return p.prefix + "/" + path
}

// errNotFound separates absence from real backend failures in Exists
// implementations.
var errNotFound = errors.New("object not found")

// IsNotFound reports whether err marks an absent object.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
