// Package filecache is a TTL JSON cache on local disk. Upstream responses
// (FIRMS, Overpass, Open-Meteo) are cached so the demo keeps working when
// an upstream is slow, rate-limited, or down, and so repeated map
// interactions do not hammer free public APIs.
package filecache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// envelope wraps cached data with the time it was written.
type envelope struct {
	Timestamp int64           `json:"timestamp"` // unix seconds
	Data      json.RawMessage `json:"data"`
}

// Cache stores JSON payloads under dir, one file per key.
type Cache struct {
	dir   string
	clock clockwork.Clock
}

// New creates the cache directory if needed and returns a Cache using the
// real clock.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, clock: clockwork.NewRealClock()}, nil
}

// NewWithClock is New with an injected time source for tests.
func NewWithClock(dir string, clock clockwork.Clock) (*Cache, error) {
	c, err := New(dir)
	if err != nil {
		return nil, err
	}
	c.clock = clock
	return c, nil
}

// Get unmarshals the cached payload for key into out and reports whether a
// fresh entry existed. Stale or unreadable entries count as misses.
func (c *Cache) Get(key string, maxAge time.Duration, out any) bool {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}

	age := c.clock.Now().Unix() - env.Timestamp
	if age < 0 || time.Duration(age)*time.Second > maxAge {
		return false
	}

	return json.Unmarshal(env.Data, out) == nil
}

// Put stores data under key, stamped with the current time. Writes go
// through a temp file and rename so a crashed write never leaves a
// half-written entry behind.
func (c *Cache) Put(key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal cache entry %q: %w", key, err)
	}
	env, err := json.Marshal(envelope{Timestamp: c.clock.Now().Unix(), Data: payload})
	if err != nil {
		return fmt.Errorf("marshal cache envelope %q: %w", key, err)
	}

	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, env, 0o644); err != nil {
		return fmt.Errorf("write cache entry %q: %w", key, err)
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		return fmt.Errorf("finalize cache entry %q: %w", key, err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

// sanitizeKey keeps keys filesystem-safe. Cache keys embed bbox strings
// with commas, dots, and minus signs.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, key)
}
