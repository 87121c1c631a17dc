package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

/*
DirectoryStore is a simple storage provider that stores objects as files in a
local directory. Object ids are file names and may not contain path
separators.
*/

////////////////////////////////////////////////////////////////////////////////

type DirectoryStore struct {
	root string
}

// NewDirectoryStore creates a new DirectoryStore, creating root if it does not
// exist.
func NewDirectoryStore(root string) (*DirectoryStore, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", root, err)
	}
	return &DirectoryStore{root: root}, nil
}

func (d *DirectoryStore) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsRune(id, os.PathSeparator) || strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid object id %q", id)
	}
	return filepath.Join(d.root, id), nil
}

// Put stores an object in the directory.
func (d *DirectoryStore) Put(_ context.Context, id string, data []byte) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write failure: %w", err)
	}
	return nil
}

// Get reads an object from the directory.
func (d *DirectoryStore) Get(_ context.Context, id string) ([]byte, error) {
	path, err := d.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete removes an object from the directory.
func (d *DirectoryStore) Delete(_ context.Context, id string) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) { // For conformance to S3 API
			return nil
		}
		return fmt.Errorf("deletion failure: %w", err)
	}
	return nil
}

// List returns the names of regular files in the directory beginning with
// prefix.
func (d *DirectoryStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.root, err)
	}
	ids := []string{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

func (d *DirectoryStore) String() string {
	return fmt.Sprintf("directory(%s)", d.root)
}
