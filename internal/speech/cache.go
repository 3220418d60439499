package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/hammamikhairi/cookassist/internal/logger"
)

// AudioCache is a bounded in-memory cache of synthesized audio. Keys are
// sha256(voice + ":" + text), so switching voices never replays stale
// audio. When full, the oldest entry is evicted. Nothing touches disk.
//
// "Read Aloud" on an unchanged recipe is the main customer: it replays
// the same chunks without another round trip to Azure.
type AudioCache struct {
	mu         sync.Mutex
	entries    map[string][]byte
	order      []string // insertion order, oldest first
	maxEntries int
	voice      string
	log        *logger.Logger
	hits       int64
	misses     int64
}

// NewAudioCache creates an audio cache holding at most maxEntries chunks.
// maxEntries <= 0 means unbounded.
func NewAudioCache(voice string, maxEntries int, log *logger.Logger) *AudioCache {
	return &AudioCache{
		entries:    make(map[string][]byte),
		maxEntries: maxEntries,
		voice:      voice,
		log:        log,
	}
}

// Get returns cached audio for text.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.hashKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if ok {
		c.hits++
		c.log.Debug("cache hit: %s (%d bytes)", truncate(text, 40), len(data))
		return data, true
	}
	c.misses++
	return nil, false
}

// Put stores audio for text, evicting the oldest entry when full.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.hashKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = audio

	for c.maxEntries > 0 && len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.log.Debug("cache store: %s (%d bytes, %d entries)", truncate(text, 40), len(audio), len(c.entries))
}

// Len returns the number of cached entries.
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *AudioCache) hashKey(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
