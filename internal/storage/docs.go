// Package storage provides an atomic JSON document store backed by a
// single directory. Every logical collection lives in one document that
// is rewritten wholesale on mutation, so a failed write leaves the
// previous version intact.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoDocument is returned by Read when the document does not exist yet.
var ErrNoDocument = errors.New("storage: document does not exist")

// Docs reads and writes JSON documents under a root directory.
type Docs struct {
	root string
}

// NewDocs creates a document store rooted at dir, creating it if needed.
func NewDocs(dir string) (*Docs, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &Docs{root: abs}, nil
}

// Root returns the absolute root directory.
func (d *Docs) Root() string {
	return d.root
}

// path validates name as a plain document name and resolves it under root.
func (d *Docs) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: document name is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid document name: %s", name)
	}
	return filepath.Join(d.root, cleaned+".json"), nil
}

// Read unmarshals the named document into v.
func (d *Docs) Read(name string, v any) error {
	abs, err := d.path(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoDocument
		}
		return fmt.Errorf("storage: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", name, err)
	}
	return nil
}

// Write atomically replaces the named document: tmp file → fsync → rename.
func (d *Docs) Write(name string, v any) error {
	abs, err := d.path(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(d.root, ".nox-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Remove deletes the named document. Removing a missing document is a no-op.
func (d *Docs) Remove(name string) error {
	abs, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}
