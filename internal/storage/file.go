package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fjod/go_storefront/internal/domain"
)

// FileStorage keeps the cart as a JSON file next to the process.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load(_ context.Context) (*domain.CartDocument, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cart file failed: %w", err)
	}

	var doc domain.CartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &doc, nil
}

// Save writes to a temp file and renames it over the old one so a crash
// never leaves a half written cart behind.
func (f *FileStorage) Save(_ context.Context, doc domain.CartDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".cart-*.json")
	if err != nil {
		return fmt.Errorf("create temp cart file failed: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cart file failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cart file failed: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace cart file failed: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cart file failed: %w", err)
	}
	return nil
}

func (f *FileStorage) Close() error { return nil }
