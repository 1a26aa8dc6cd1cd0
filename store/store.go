// Package store keeps a bounded history of generated QR codes, either in
// memory or in an SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("history entry not found")

// Entry is one generated QR code with all of its documents.
type Entry struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	FilenameBase string    `json:"filename_base"`
	Timestamp    string    `json:"timestamp"`
	CreatedAt    time.Time `json:"created_at"`
	Version      int       `json:"version"`
	Level        string    `json:"level"`
	PNG          []byte    `json:"-"`
	SVG          []byte    `json:"-"`
	PDF          []byte    `json:"-"`
}

// Summary is an Entry without its documents.
type Summary struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	FilenameBase string    `json:"filename_base"`
	Timestamp    string    `json:"timestamp"`
	CreatedAt    time.Time `json:"created_at"`
	Version      int       `json:"version"`
	Level        string    `json:"level"`
}

// Summary drops the documents from e.
func (e *Entry) Summary() Summary {
	return Summary{
		ID:           e.ID,
		Text:         e.Text,
		FilenameBase: e.FilenameBase,
		Timestamp:    e.Timestamp,
		CreatedAt:    e.CreatedAt,
		Version:      e.Version,
		Level:        e.Level,
	}
}

// Store is a capped history. Once the cap is reached, saving a new entry
// evicts an old one.
type Store interface {
	Save(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	// List returns at most limit summaries, newest first. limit <= 0 means
	// no limit.
	List(ctx context.Context, limit int) ([]Summary, error)
	Clear(ctx context.Context) error
	Close() error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// New opens the backend named by backend holding at most max entries. The
// SQLite database lives in dataDir/history.db.
func New(backend, dataDir string, max int) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(max)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dataDir, "history.db"), max)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}
