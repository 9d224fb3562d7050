package repositories

import (
	"database/sql"
	"fmt"
	"sync"
)

// Store is a durable string-keyed map with an explicit flush operation. The
// engine serializes non-string values before Set and calls Flush immediately
// after any write it wants durable before the next read.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)

	// Set buffers a value for key. The write becomes durable on Flush.
	Set(key, value string) error

	// Flush persists all buffered writes.
	Flush() error
}

// CacheRepository implements Store on the cache_entries SQLite table.
type CacheRepository struct {
	db *sql.DB

	mu      sync.Mutex
	pending map[string]string
}

// NewCacheRepository creates a store backed by the given database. The
// cache_entries table must exist (shared.RunMigrations creates it).
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{
		db:      db,
		pending: make(map[string]string),
	}
}

// Get returns the buffered value for key if a write is pending, otherwise the
// last flushed value.
func (c *CacheRepository) Get(key string) (string, bool, error) {
	c.mu.Lock()
	if value, ok := c.pending[key]; ok {
		c.mu.Unlock()
		return value, true, nil
	}
	c.mu.Unlock()

	var value string
	err := c.db.QueryRow("SELECT value FROM cache_entries WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, true, nil
}

// Set buffers a write for key.
func (c *CacheRepository) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[key] = value
	return nil
}

// Flush writes all buffered entries in one transaction.
func (c *CacheRepository) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin flush transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare flush statement: %w", err)
	}
	defer stmt.Close()

	for key, value := range c.pending {
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("failed to flush cache entry %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flush transaction: %w", err)
	}

	c.pending = make(map[string]string)
	return nil
}

// MemoryStore is an in-process Store for tests and embedding hosts that own
// their persistence.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string

	// FlushCount records how many times Flush was called, for assertions.
	FlushCount int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemoryStore) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushCount++
	return nil
}
