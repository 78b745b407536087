package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is applied when a caller does not specify an expiry.
const DefaultTTL = 15 * time.Minute

var (
	mu     sync.Mutex
	client *redis.Client
)

// ErrClientAlreadySet is returned when SetClient is called twice; the shared
// connection is assigned once at startup and immutable thereafter.
var ErrClientAlreadySet = errors.New("cache: redis client already set")

// ErrNoClient is returned by cache operations before SetClient has run.
var ErrNoClient = errors.New("cache: redis client not set")

// SetClient installs the process-wide Redis client. Calling it a second time
// is a configuration error.
func SetClient(c *redis.Client) error {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		return ErrClientAlreadySet
	}
	client = c
	return nil
}

func getClient() (*redis.Client, error) {
	mu.Lock()
	defer mu.Unlock()
	if client == nil {
		return nil, ErrNoClient
	}
	return client, nil
}

// resetClient exists for tests only.
func resetClient() {
	mu.Lock()
	defer mu.Unlock()
	client = nil
}

// Cache is a namespaced view over the shared client. Keys are rendered as
// "<namespace>-<key>"; an empty namespace leaves keys untouched.
type Cache struct {
	prefix string
}

func New(namespace string) *Cache {
	if namespace != "" {
		namespace += "-"
	}
	return &Cache{prefix: namespace}
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Set stores value as JSON under key with create-if-absent semantics: an
// existing fresh entry is not overwritten. Returns whether the value was
// written. ttl <= 0 falls back to DefaultTTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	cl, err := getClient()
	if err != nil {
		return false, err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return cl.SetNX(ctx, c.key(key), b, ttl).Result()
}

// Get loads the value stored under key into out. The second return reports
// whether the key was present; a miss is not an error.
func (c *Cache) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	cl, err := getClient()
	if err != nil {
		return false, err
	}
	b, err := cl.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the given keys and returns how many existed.
func (c *Cache) Delete(ctx context.Context, keys ...string) (int64, error) {
	cl, err := getClient()
	if err != nil {
		return 0, err
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return cl.Del(ctx, full...).Result()
}
