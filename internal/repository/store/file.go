package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultFilePermissions is used for the store document.
const DefaultFilePermissions = 0o600

// fileDocument is the YAML layout of a file store.
type fileDocument struct {
	// Records maps namespaced keys to hex-encoded values.
	Records map[string]string `yaml:"records"`
}

// FileStore persists records to a YAML document on disk.
// Every Put rewrites the document through a temporary file and a rename.
type FileStore struct {
	// path is the filesystem location of the YAML document.
	path string
	// mu serializes access to the document.
	mu sync.Mutex
}

// NewFileStore creates a store reading and writing the document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// Get reads the record from disk.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	encoded, ok := doc.Records[recordKey(key)]
	if !ok {
		return nil, ErrNotFound
	}

	value, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}

	return value, nil
}

// Put writes the record and flushes the whole document to disk.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return writeFailed(key, err)
	}

	doc.Records[recordKey(key)] = hex.EncodeToString(value)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return writeFailed(key, err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, DefaultFilePermissions); err != nil {
		return writeFailed(key, err)
	}

	if err = os.Rename(tmp, s.path); err != nil {
		return writeFailed(key, err)
	}

	return nil
}

// Close is a no-op, the document is not kept open.
func (s *FileStore) Close() error {
	return nil
}

// read loads the document, returning an empty one when the file does not exist yet.
func (s *FileStore) read() (*fileDocument, error) {
	doc := &fileDocument{
		Records: make(map[string]string),
	}

	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}

		return nil, fmt.Errorf("read store file: %w", err)
	}

	if err = yaml.Unmarshal(contents, doc); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}

	if doc.Records == nil {
		doc.Records = make(map[string]string)
	}

	return doc, nil
}
