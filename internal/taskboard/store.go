package taskboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Iron-Ham/hive/internal/errs"
)

// Store is the persistence boundary for the board document.
type Store interface {
	Load() (*Document, error)
	Save(doc *Document) error

	// Path returns the backing file path, or "" for in-memory stores.
	Path() string
}

// FileStore persists the board document as a single JSON file with atomic
// (temp file + rename) writes.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore for the given path, initializing the file
// with an empty board if it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", errs.ErrBoardRead, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("%w: create board directory: %v", errs.ErrBoardWrite, err)
		}
		if err := fs.Save(NewDocument()); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Load reads and parses the board file.
func (fs *FileStore) Load() (*Document, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrBoardRead, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", errs.ErrBoardRead, fs.path, err)
	}
	if doc.Tasks == nil {
		doc.Tasks = make(map[string]*Task)
	}
	return &doc, nil
}

// Save serializes the document and writes it atomically.
func (fs *FileStore) Save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", errs.ErrBoardWrite, err)
	}
	if err := atomicWriteFile(fs.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBoardWrite, err)
	}
	return nil
}

// Path returns the backing file path.
func (fs *FileStore) Path() string { return fs.path }

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu  sync.Mutex
	doc *Document

	// FailLoad and FailSave, when set, force the corresponding operation
	// to fail.
	FailLoad error
	FailSave error
}

// NewMemStore creates a MemStore seeded with an empty board.
func NewMemStore() *MemStore {
	return &MemStore{doc: NewDocument()}
}

// Load returns a deep copy of the current document.
func (ms *MemStore) Load() (*Document, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailLoad != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrBoardRead, ms.FailLoad)
	}
	return cloneDocument(ms.doc), nil
}

// Save stores a deep copy of the document.
func (ms *MemStore) Save(doc *Document) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailSave != nil {
		return fmt.Errorf("%w: %v", errs.ErrBoardWrite, ms.FailSave)
	}
	ms.doc = cloneDocument(doc)
	return nil
}

// Path returns "" to signal an in-memory store.
func (ms *MemStore) Path() string { return "" }

func cloneDocument(doc *Document) *Document {
	cp := &Document{Tasks: make(map[string]*Task, len(doc.Tasks))}
	for id, task := range doc.Tasks {
		cp.Tasks[id] = task.Clone()
	}
	return cp
}

// atomicWriteFile writes data via a temporary file in the same directory,
// then renames it into place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
