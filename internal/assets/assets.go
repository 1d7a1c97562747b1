// Package assets fetches external scene assets from disk or over HTTP.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// MaxAssetSize bounds a single download.
const MaxAssetSize = 64 << 20

// Manager resolves asset paths to bytes. Paths starting with http:// or
// https:// are downloaded, anything else is read from the filesystem.
// Successful reads are cached for the lifetime of the manager.
type Manager struct {
	client *http.Client
	cache  *Cache
	log    *zap.Logger
}

// NewManager creates a new asset manager. A nil client uses http.DefaultClient.
func NewManager(client *http.Client, log *zap.Logger) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		client: client,
		cache:  NewCache(),
		log:    log,
	}
}

// Fetch returns the asset at path. It is safe for concurrent use.
func (m *Manager) Fetch(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("empty asset path")
	}
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	var (
		data []byte
		err  error
	)
	if isRemote(path) {
		data, err = m.download(ctx, path)
	} else {
		data, err = m.readFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	m.cache.Set(path, data)
	m.log.Debug("asset fetched", zap.String("path", path), zap.Int("bytes", len(data)))
	return data, nil
}

func (m *Manager) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (m *Manager) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", url, err)
	}
	if len(data) > MaxAssetSize {
		return nil, fmt.Errorf("downloading %s: asset exceeds %d bytes", url, MaxAssetSize)
	}
	return data, nil
}

// Stats returns cache hit and miss counts.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops cached data.
func (m *Manager) Close() {
	m.cache.Clear()
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
