// internal/storage/kv.go
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	EngineSQLite = "sqlite"
	EngineBolt   = "bolt"
	EngineFile   = "file"
	EngineMemory = "memory"
)

var ErrUnsupportedEngine = errors.New("unsupported store engine")

// KV is a durable key-value store holding opaque values under fixed keys.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}

// NewByEngine opens the store named by engine at path. An empty engine
// selects SQLite.
func NewByEngine(engine, path string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineSQLite:
		return NewSQLiteStorage(path)
	case EngineBolt:
		return NewBoltStorage(path)
	case EngineFile:
		return NewFileStorage(path)
	case EngineMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, engine)
	}
}

// DefaultPath returns the data file name used for engine inside dir.
func DefaultPath(dir, engine string) string {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case EngineBolt:
		return filepath.Join(dir, "calorie-scan.bolt")
	case EngineFile:
		return filepath.Join(dir, "calorie-scan.json")
	case EngineMemory:
		return ""
	default:
		return filepath.Join(dir, "calorie-scan.db")
	}
}
