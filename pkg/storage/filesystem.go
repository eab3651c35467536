package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extensions maps accepted MIME types onto file extensions used in storage keys.
var extensions = map[string]string{
	"application/pdf": "pdf",
	"image/png":       "png",
	"image/jpeg":      "jpg",
}

// KeyFor builds the storage key for a document version: {versionID}.{ext}.
func KeyFor(versionID, mimeType string) string {
	ext, ok := extensions[strings.ToLower(mimeType)]
	if !ok {
		ext = "bin"
	}
	return fmt.Sprintf("%s.%s", versionID, ext)
}

// LocalStorage persists document payloads on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./documents"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Write stores the payload under the given key. A failed write removes any
// partially written file so orphan bytes never outlive the call.
func (s *LocalStorage) Write(key string, data []byte) error {
	path := s.resolve(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare documents directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write document payload: %w", err)
	}
	return nil
}

// Read returns the full payload stored under the key.
func (s *LocalStorage) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(key))
	if err != nil {
		return nil, fmt.Errorf("read document payload: %w", err)
	}
	return data, nil
}

// Open returns a read-only handle for streaming downloads.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	file, err := os.Open(s.resolve(key))
	if err != nil {
		return nil, fmt.Errorf("open document payload: %w", err)
	}
	return file, nil
}

// SaveStream copies from reader into the target file.
func (s *LocalStorage) SaveStream(key string, r io.Reader) error {
	path := s.resolve(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare documents directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create document file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write document stream: %w", err)
	}
	return nil
}

// Exists reports whether a payload is stored under the key.
func (s *LocalStorage) Exists(key string) bool {
	_, err := os.Stat(s.resolve(key))
	return err == nil
}

// Delete removes a stored payload if present. Used only as compensating
// cleanup when a metadata transaction rolls back; committed versions are
// retired, never removed.
func (s *LocalStorage) Delete(key string) error {
	if err := os.Remove(s.resolve(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document payload: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(key string) string {
	return s.resolve(key)
}

func (s *LocalStorage) resolve(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(s.baseDir, key)
}
