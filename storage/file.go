package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

var _ KeyValue = (*File)(nil)

// File keeps the key-value map as a single JSON document on disk. Every update rewrites
// the document through a temporary file and an atomic rename, so a concurrent reader
// sees either the old or the new document, never a partial one.
type File struct {
	path   string
	sealer *sealer
	mu     sync.Mutex
}

// FileOption defines a function type to modify the File instance.
type FileOption func(*File)

// WithPassphrase seals the document with a key derived from passphrase.
func WithPassphrase(passphrase string) FileOption {
	return func(f *File) {
		if passphrase != "" {
			f.sealer = newSealer(passphrase)
		}
	}
}

func NewFile(path string, options ...FileOption) *File {
	f := &File{path: path}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *File) Get(_ context.Context, keys ...string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := items[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (f *File) Update(_ context.Context, set map[string]string, remove ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if errors.Is(err, CorruptErr) {
		// An unreadable document is replaced rather than merged.
		items, err = map[string]string{}, nil
	}
	if err != nil {
		return err
	}

	maps.Copy(items, set)
	for _, k := range remove {
		delete(items, k)
	}
	return f.write(items)
}

func (f *File) Close() error {
	return nil
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", UnavailableErr, f.path, err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	if f.sealer != nil {
		if data, err = f.sealer.open(data); err != nil {
			return nil, fmt.Errorf("%w: %v", CorruptErr, err)
		}
	}

	items := map[string]string{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", CorruptErr, err)
	}
	return items, nil
}

func (f *File) write(items map[string]string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", UnavailableErr, err)
	}
	if f.sealer != nil {
		if data, err = f.sealer.seal(data); err != nil {
			return fmt.Errorf("%w: seal: %v", UnavailableErr, err)
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", UnavailableErr, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", UnavailableErr, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name()) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write: %v", UnavailableErr, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync: %v", UnavailableErr, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", UnavailableErr, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: rename: %v", UnavailableErr, err)
	}
	return nil
}
