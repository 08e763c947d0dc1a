package refstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore implements Store using JSON file storage. Writes go through an
// atomic rename so a crash never leaves a half-written file.
//
// FileStore is meant for local development and single-instance deployments.
// Use PostgreSQL or MongoDB when running more than one replica.
type FileStore struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]Record
}

// fileData represents the JSON structure stored in the file.
type fileData struct {
	Records map[string]Record `json:"records"`
}

// NewFileStore creates a new file-backed store, loading existing records.
func NewFileStore(filePath string) (*FileStore, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	store := &FileStore{
		filePath: filePath,
		records:  make(map[string]Record),
	}

	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

// load reads existing records from disk. A missing file is not an error.
func (f *FileStore) load() error {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("parse store file: %w", err)
	}
	if fd.Records != nil {
		f.records = fd.Records
	}
	return nil
}

// persist writes all records to a temp file and renames it into place.
// Caller must hold the write lock.
func (f *FileStore) persist() error {
	data, err := json.MarshalIndent(fileData{Records: f.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store file: %w", err)
	}

	tmp := f.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, f.filePath); err != nil {
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}

// Save inserts or replaces a record keyed by reference.
func (f *FileStore) Save(_ context.Context, rec Record) error {
	if err := validateRecord(&rec); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.records[rec.Reference]; ok {
		rec.CreatedAt = existing.CreatedAt
	}
	f.records[rec.Reference] = rec
	return f.persist()
}

// Get retrieves a record by reference.
func (f *FileStore) Get(_ context.Context, reference string) (Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	rec, ok := f.records[reference]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// UpdateStatus transitions a record's status and message.
func (f *FileStore) UpdateStatus(_ context.Context, reference, status, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[reference]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.Message = message
	rec.UpdatedAt = time.Now().UTC()
	f.records[reference] = rec
	return f.persist()
}

// List returns records ordered newest first, up to limit (0 = all).
func (f *FileStore) List(_ context.Context, limit int) ([]Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Record, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Driver returns the backing driver name.
func (f *FileStore) Driver() string { return "file" }

// Close implements the Store interface.
func (f *FileStore) Close() error { return nil }
