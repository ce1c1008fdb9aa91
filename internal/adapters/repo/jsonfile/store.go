// Package jsonfile persists small JSON documents with write-then-replace
// semantics. Readers never observe a partially written file.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/familiar-bridge/internal/domain"
)

const (
	documentDirMode  = 0o755
	documentFileMode = 0o644
)

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}

	// renameFile is swapped in tests to interrupt a write before the replace.
	renameFile = os.Rename
)

// lockForPath returns the process-wide lock guarding path so every
// repository instance pointing at the same file shares one writer.
func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// Write encodes v and atomically replaces path with it, creating parent
// directories on demand.
func Write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return WriteBytes(path, append(data, '\n'), documentFileMode)
}

// WriteBytes atomically replaces path with data. The temp file is a sibling
// named after the target with a random suffix and is removed on failure.
func WriteBytes(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, documentDirMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", filepath.Base(path), err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", filepath.Base(path), err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file for %s: %w", filepath.Base(path), err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("flush temp file for %s: %w", filepath.Base(path), err)
	}

	if err := tempFile.Chmod(mode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file for %s: %w", filepath.Base(path), err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", filepath.Base(path), err)
	}

	if err := renameFile(tempName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}

	cleanup = false
	return nil
}

// Read decodes path into a copy of fallback. A missing or malformed file
// yields fallback unchanged; Read never fails.
func Read[T any](path string, fallback T) T {
	value, err := ReadStrict(path, fallback)
	if err != nil {
		return fallback
	}
	return value
}

// ReadStrict is Read for documents where a silent reset would lose data:
// a missing file yields fallback, a malformed one an ErrCorruptDocument.
func ReadStrict[T any](path string, fallback T) (T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, nil
		}
		return fallback, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	value := fallback
	if err := json.Unmarshal(data, &value); err != nil {
		return fallback, fmt.Errorf("%w: decode %s: %v", domain.ErrCorruptDocument, filepath.Base(path), err)
	}
	return value, nil
}
