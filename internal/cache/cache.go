package cache

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// dbFile is the database file name inside the cache directory.
const dbFile = "responses.db"

// Cache stores model responses in a SQLite database.
type Cache struct {
	db         *sql.DB
	dir        string
	ttlSeconds int
	enabled    bool
	now        func() time.Time
}

// New creates a new Cache. If dir is empty, uses the default cache directory.
// A disabled cache accepts every call and stores nothing.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false, now: time.Now}, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dsn := "file:" + filepath.Join(dir, dbFile) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			key        TEXT PRIMARY KEY,
			response   TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			ttl        INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}

	return &Cache{
		db:         db,
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
		now:        time.Now,
	}, nil
}

// Get retrieves a cached response by key. Returns ("", false) on miss.
// Expired entries are deleted on read.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	h := HashKey(key)

	var response string
	var createdAt int64
	err := c.db.QueryRow(`SELECT response, created_at FROM responses WHERE key = ?`, h).Scan(&response, &createdAt)
	if err != nil {
		return "", false
	}
	if c.expired(createdAt) {
		c.db.Exec(`DELETE FROM responses WHERE key = ?`, h)
		return "", false
	}
	return response, true
}

// Put stores a response in the cache, replacing any previous entry.
func (c *Cache) Put(key, response string) error {
	if !c.enabled {
		return nil
	}
	_, err := c.db.Exec(`
		INSERT INTO responses (key, response, created_at, ttl) VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			response = excluded.response,
			created_at = excluded.created_at,
			ttl = excluded.ttl`,
		HashKey(key), response, c.now().UnixNano(), c.ttlSeconds)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	if _, err := c.db.Exec(`DELETE FROM responses`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *Cache) Prune() (int, error) {
	if !c.enabled || c.ttlSeconds <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-time.Duration(c.ttlSeconds) * time.Second).UnixNano()
	res, err := c.db.Exec(`DELETE FROM responses WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return int(n), nil
}

// Stats returns cache statistics. Oldest and Newest are zero when the cache
// is empty.
type Stats struct {
	Dir        string    `json:"dir"`
	TTLSeconds int       `json:"ttlSeconds"`
	Entries    int       `json:"entries"`
	TotalBytes int64     `json:"totalBytes"`
	Expired    int       `json:"expired"`
	Oldest     time.Time `json:"oldest,omitzero"`
	Newest     time.Time `json:"newest,omitzero"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir, TTLSeconds: c.ttlSeconds}
	if !c.enabled {
		return stats, nil
	}
	rows, err := c.db.Query(`SELECT length(response), created_at FROM responses`)
	if err != nil {
		return stats, fmt.Errorf("reading cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var size, createdAt int64
		if err := rows.Scan(&size, &createdAt); err != nil {
			return stats, fmt.Errorf("reading cache: %w", err)
		}
		stats.Entries++
		stats.TotalBytes += size
		if c.expired(createdAt) {
			stats.Expired++
		}
		at := time.Unix(0, createdAt)
		if stats.Oldest.IsZero() || at.Before(stats.Oldest) {
			stats.Oldest = at
		}
		if at.After(stats.Newest) {
			stats.Newest = at
		}
	}
	return stats, rows.Err()
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

func (c *Cache) expired(createdAt int64) bool {
	if c.ttlSeconds <= 0 {
		return false
	}
	return c.now().Sub(time.Unix(0, createdAt)) > time.Duration(c.ttlSeconds)*time.Second
}

// DefaultDir returns the directory used when none is configured.
func DefaultDir() (string, error) {
	return defaultCacheDir()
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "brief"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "brief"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "brief", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "brief", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "brief"), nil
	}
}
