package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// fileExtension is the file extension used for stored records.
const fileExtension = ".json"

var _ Store = (*FileStore)(nil)

// fileRecord is the on-disk form of one key. The key is kept alongside the
// value because file names are hashes and cannot be reversed.
type fileRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FileStore keeps one JSON file per key in a directory.
// Thread-safe for concurrent access within a process.
type FileStore struct {
	// directory is the storage directory path.
	directory string

	// mu protects concurrent access to file operations.
	mu sync.RWMutex
}

// NewFileStore creates a file-backed store rooted at directory.
// The directory will be created if it doesn't exist.
func NewFileStore(directory string) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}

	if err := os.MkdirAll(directory, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{directory: directory}, nil
}

// Get reads the value stored under key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.keyToFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: failed to read cache file: %w", ErrUnavailable, err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Key != key {
		// A torn or foreign file reads as a miss; the next Set replaces it.
		return nil, false, nil
	}
	return []byte(rec.Value), true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(fileRecord{Key: key, Value: string(value)})
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}

	filePath := s.keyToFilePath(key)

	// Write to temporary file first, then rename for atomicity
	tempPath := filePath + ".tmp"
	if writeErr := os.WriteFile(tempPath, data, 0600); writeErr != nil {
		return fmt.Errorf("%w: failed to write cache file: %w", ErrUnavailable, writeErr)
	}

	if renameErr := os.Rename(tempPath, filePath); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: failed to rename cache file: %w", ErrUnavailable, renameErr)
	}

	return nil
}

// Delete removes key. Returns nil if the key doesn't exist.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.keyToFilePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to delete cache file: %w", ErrUnavailable, err)
	}
	return nil
}

// Keys scans the directory for records whose key starts with prefix.
func (s *FileStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	err := s.eachRecord(func(_ string, rec fileRecord) {
		if strings.HasPrefix(rec.Key, prefix) {
			keys = append(keys, rec.Key)
		}
	})
	return keys, err
}

// Clear removes every record from the store.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExtension {
			continue
		}
		if removeErr := os.Remove(filepath.Join(s.directory, entry.Name())); removeErr != nil {
			return fmt.Errorf("failed to remove cache file %s: %w", entry.Name(), removeErr)
		}
	}

	return nil
}

// Size returns the total size of stored records in bytes.
func (s *FileStore) Size() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var totalSize int64
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExtension {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		totalSize += info.Size()
	}

	return totalSize, nil
}

// Count returns the number of stored records.
func (s *FileStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	err := s.eachRecord(func(string, fileRecord) { count++ })
	return count, err
}

// Directory returns the storage directory path.
func (s *FileStore) Directory() string {
	return s.directory
}

// eachRecord calls fn for every readable record file. Must be called with mu held.
func (s *FileStore) eachRecord(fn func(path string, rec fileRecord)) error {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExtension {
			continue
		}
		path := filepath.Join(s.directory, entry.Name())
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			continue // Skip files we can't read
		}
		var rec fileRecord
		if json.Unmarshal(data, &rec) != nil {
			continue // Skip invalid records
		}
		fn(path, rec)
	}
	return nil
}

// keyToFilePath maps a key to its file. Keys carry arbitrary JSON, so the
// name is a hash of the key rather than a sanitized copy of it.
func (s *FileStore) keyToFilePath(key string) string {
	name := strconv.FormatUint(xxhash.Sum64String(key), 16)
	return filepath.Join(s.directory, name+fileExtension)
}
