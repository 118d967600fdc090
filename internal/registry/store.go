package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Iron-Ham/hive/internal/errs"
)

// Store is the persistence boundary for the registry document. Decoupling
// the lifecycle rules from the filesystem keeps the Manager testable against
// an in-memory double.
type Store interface {
	// Load returns the current document. Fails with an error wrapping
	// errs.ErrRegistryRead when the backing data is missing or unparsable.
	Load() (*Document, error)

	// Save persists the document. Fails with an error wrapping
	// errs.ErrRegistryWrite on I/O failure.
	Save(doc *Document) error

	// Path returns the backing file path, or "" for in-memory stores.
	Path() string

	// Size returns the serialized size of the document in bytes.
	Size() (int64, error)
}

// -----------------------------------------------------------------------------
// FileStore
// -----------------------------------------------------------------------------

// FileStore persists the registry document as a single JSON file.
// Writes are atomic (temp file + rename), so lock-free readers always see a
// complete document.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore for the given path, initializing the file
// with an empty document if it does not exist. Parent directories are
// created as needed.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}
	if err := fs.ensureInitialized(); err != nil {
		return nil, err
	}
	return fs, nil
}

// ensureInitialized writes an empty document when the file is absent.
func (fs *FileStore) ensureInitialized() error {
	if _, err := os.Stat(fs.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrRegistryRead, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0755); err != nil {
		return fmt.Errorf("%w: create registry directory: %v", errs.ErrRegistryWrite, err)
	}
	return fs.Save(NewDocument(time.Now()))
}

// Load reads and parses the registry file.
func (fs *FileStore) Load() (*Document, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRegistryRead, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", errs.ErrRegistryRead, fs.path, err)
	}
	if doc.Agents == nil {
		doc.Agents = make(map[string]*AgentEntry)
	}
	return &doc, nil
}

// Save serializes the document and writes it atomically.
func (fs *FileStore) Save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", errs.ErrRegistryWrite, err)
	}
	if err := atomicWriteFile(fs.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrRegistryWrite, err)
	}
	return nil
}

// Path returns the backing file path.
func (fs *FileStore) Path() string { return fs.path }

// Size returns the registry file size in bytes.
func (fs *FileStore) Size() (int64, error) {
	info, err := os.Stat(fs.path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrRegistryRead, err)
	}
	return info.Size(), nil
}

// -----------------------------------------------------------------------------
// MemStore
// -----------------------------------------------------------------------------

// MemStore is an in-memory Store for tests. Documents are deep-copied on
// both Load and Save so callers cannot mutate shared state.
type MemStore struct {
	mu  sync.Mutex
	doc *Document

	// FailLoad and FailSave, when set, force the corresponding operation
	// to fail. Used to exercise error propagation.
	FailLoad error
	FailSave error
}

// NewMemStore creates a MemStore seeded with an empty document.
func NewMemStore() *MemStore {
	return &MemStore{doc: NewDocument(time.Now())}
}

// Load returns a deep copy of the current document.
func (ms *MemStore) Load() (*Document, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailLoad != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRegistryRead, ms.FailLoad)
	}
	return cloneDocument(ms.doc), nil
}

// Save stores a deep copy of the document.
func (ms *MemStore) Save(doc *Document) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailSave != nil {
		return fmt.Errorf("%w: %v", errs.ErrRegistryWrite, ms.FailSave)
	}
	ms.doc = cloneDocument(doc)
	return nil
}

// Path returns "" to signal an in-memory store.
func (ms *MemStore) Path() string { return "" }

// Size returns the serialized size of the current document.
func (ms *MemStore) Size() (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	data, err := json.MarshalIndent(ms.doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("%w: marshal: %v", errs.ErrRegistryRead, err)
	}
	return int64(len(data)), nil
}

// cloneDocument deep-copies a document.
func cloneDocument(doc *Document) *Document {
	cp := *doc
	cp.Agents = make(map[string]*AgentEntry, len(doc.Agents))
	for id, entry := range doc.Agents {
		cp.Agents[id] = entry.Clone()
	}
	return &cp
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// atomicWriteFile writes data to a file atomically by writing a temporary
// file in the same directory first, then renaming it into place. The target
// is never observable in a partially written state.
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
