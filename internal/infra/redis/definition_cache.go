package redis

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefinitionSource loads and stores raw quiz definition documents.
type DefinitionSource interface {
	Load(ctx context.Context, ref string) ([]byte, error)
	Store(ctx context.Context, data []byte) (string, error)
}

// DefinitionCache keeps raw definition documents in Redis and falls back to the source on a miss.
// Documents are stored as: SET quiz:definition:{ref} {json}
type DefinitionCache struct {
	client *redis.Client
	source DefinitionSource
	ttl    time.Duration
	log    logrus.FieldLogger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewDefinitionCache(client *redis.Client, source DefinitionSource, ttl time.Duration, log logrus.FieldLogger) *DefinitionCache {
	return &DefinitionCache{
		client: client,
		source: source,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DefinitionCache) Load(ctx context.Context, ref string) ([]byte, error) {
	key := definitionKey(ref)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		return data, nil
	} else if !errors.Is(err, redis.Nil) {
		c.log.WithError(err).WithField("ref", ref).Warn("redis definition lookup failed")
	}

	result, err, _ := c.sf.Do(ref, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
			return data, nil
		}
		data, err := c.source.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		c.put(ctx, ref, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Store writes through to the source and primes the cache.
func (c *DefinitionCache) Store(ctx context.Context, data []byte) (string, error) {
	ref, err := c.source.Store(ctx, data)
	if err != nil {
		return "", err
	}
	c.put(ctx, ref, data)
	return ref, nil
}

// put is best effort; the source stays authoritative.
func (c *DefinitionCache) put(ctx context.Context, ref string, data []byte) {
	if err := c.client.Set(ctx, definitionKey(ref), data, c.ttlWithJitter()).Err(); err != nil {
		c.log.WithError(err).WithField("ref", ref).Warn("redis definition write failed")
	}
}

func definitionKey(ref string) string {
	return "quiz:definition:" + ref
}

func (c *DefinitionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
