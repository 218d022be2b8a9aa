package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/pipeline"
)

// Bump when the CachedObject format changes.
const cacheSchemaVersion uint16 = 1

// ObjectCache stores emitted artifacts on disk keyed by input digest.
// Thread-safe for concurrent access.
type ObjectCache struct {
	mu  sync.RWMutex
	dir string
}

// CacheKey identifies one (input, target, backend) combination.
type CacheKey uint64

// CachedObject is the envelope stored per artifact.
type CachedObject struct {
	Schema uint16
	Name   string
	Ext    string
	Object []byte
}

// OpenObjectCache initializes and returns a cache at the standard location.
func OpenObjectCache(app string) (*ObjectCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewObjectCache(filepath.Join(base, app))
}

// NewObjectCache initializes a cache rooted at dir.
func NewObjectCache(dir string) (*ObjectCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ObjectCache{dir: dir}, nil
}

// Key digests the raw input together with everything that changes the
// artifact: the target and the backend kind.
func Key(input []byte, target backend.Target, kind pipeline.Backend) CacheKey {
	h := xxhash.New()
	_, _ = h.Write(input)
	_, _ = h.WriteString("\x00" + target.String())
	_, _ = h.WriteString("\x00" + string(kind))
	return CacheKey(h.Sum64())
}

func (c *ObjectCache) pathFor(key CacheKey) string {
	return filepath.Join(c.dir, "objects", fmt.Sprintf("%016x.mp", uint64(key)))
}

// Put serializes and writes an artifact envelope to the cache, stamping
// the current schema version.
func (c *ObjectCache) Put(key CacheKey, payload *CachedObject) error {
	if c == nil {
		return nil
	}
	payload.Schema = cacheSchemaVersion
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace.
	return os.Rename(f.Name(), p)
}

// Get reads an artifact envelope from the cache. A missing entry or a
// schema mismatch reports a miss, not an error.
func (c *ObjectCache) Get(key CacheKey, out *CachedObject) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// Drop invalidates the whole cache.
func (c *ObjectCache) Drop() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
