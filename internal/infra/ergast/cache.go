package ergast

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// diskCache stores raw API responses on disk keyed by request URL, so
// restarts and repeated user requests do not hammer the upstream API.
type diskCache struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

type cacheEntry struct {
	SavedAt time.Time       `json:"saved_at"`
	URL     string          `json:"url"`
	Body    json.RawMessage `json:"body"`
}

func newDiskCache(dir string, logger *zap.Logger) (*diskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &diskCache{dir: dir, logger: logger, now: time.Now}, nil
}

func (c *diskCache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:16])+".json")
}

func (c *diskCache) Get(url string, ttl time.Duration) ([]byte, bool) {
	raw, err := os.ReadFile(c.path(url))
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("corrupt cache entry", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	if c.now().Sub(entry.SavedAt) > ttl {
		return nil, false
	}
	return entry.Body, true
}

func (c *diskCache) Put(url string, body []byte) {
	entry := cacheEntry{SavedAt: c.now(), URL: url, Body: body}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := os.WriteFile(c.path(url), raw, 0o644); err != nil {
		c.logger.Warn("failed to write cache entry", zap.String("url", url), zap.Error(err))
	}
}
