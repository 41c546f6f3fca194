package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefinitionSource loads and stores raw quiz definition documents (filesystem, postgres, ...).
type DefinitionSource interface {
	Load(ctx context.Context, ref string) ([]byte, error)
	Store(ctx context.Context, data []byte) (string, error)
}

// DefinitionCache keeps definition documents in process with a TTL so repeated grading
// does not re-read the backing store.
type DefinitionCache struct {
	source DefinitionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDefinition
}

type cachedDefinition struct {
	data      []byte
	expiresAt time.Time
}

func NewDefinitionCache(source DefinitionSource, ttl time.Duration) *DefinitionCache {
	return &DefinitionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDefinition),
	}
}

func (c *DefinitionCache) Load(ctx context.Context, ref string) ([]byte, error) {
	if data, ok := c.lookup(ref); ok {
		return data, nil
	}

	result, err, _ := c.sf.Do(ref, func() (interface{}, error) {
		if data, ok := c.lookup(ref); ok {
			return data, nil
		}
		data, err := c.source.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		c.put(ref, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Store writes through to the source and primes the cache with the new document.
func (c *DefinitionCache) Store(ctx context.Context, data []byte) (string, error) {
	ref, err := c.source.Store(ctx, data)
	if err != nil {
		return "", err
	}
	c.put(ref, data)
	return ref, nil
}

func (c *DefinitionCache) lookup(ref string) ([]byte, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[ref]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.data, true
}

func (c *DefinitionCache) put(ref string, data []byte) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.cache[ref] = cachedDefinition{data: data, expiresAt: c.clock().Add(c.ttlWithJitter())}
	c.mu.Unlock()
}

func (c *DefinitionCache) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
