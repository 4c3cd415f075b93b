package scenedesc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
)

const defaultShards = 16

type CacheOptions struct {
	// Shards is the number of independently locked key ranges. Defaults to 16.
	Shards int
}

// Cache shares loaded descriptions between scenes. Entries are never evicted
// and a key keeps the first description stored under it for the cache's
// lifetime.
type Cache struct {
	loader Loader
	logger log.Log
	shards []cacheShard
	group  singleflight.Group
	loads  atomic.Uint64
}

type cacheShard struct {
	mu      sync.Mutex
	entries map[string]*Description
}

func NewCache(loader Loader, logger log.Log, opts CacheOptions) *Cache {
	if opts.Shards <= 0 {
		opts.Shards = defaultShards
	}
	if logger == nil {
		logger = log.Nop()
	}
	c := &Cache{
		loader: loader,
		logger: logger.With(log.String("component", "scene_cache")),
		shards: make([]cacheShard, opts.Shards),
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]*Description)
	}
	return c
}

func (c *Cache) shard(key string) *cacheShard {
	return &c.shards[xxhash.Sum64String(key)%uint64(len(c.shards))]
}

func (c *Cache) Get(key string) (*Description, bool) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.entries[key]
	return d, ok
}

// Set stores d under key unless the key is already taken, and returns the
// description that is cached afterwards. Losers of a race get the winner.
func (c *Cache) Set(key string, d *Description) *Description {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[key]; ok {
		return existing
	}
	s.entries[key] = d
	return d
}

// GetOrLoad returns the cached description for key, loading it on a miss.
// Concurrent misses on the same key share one loader call. The shared load is
// detached from any single caller's cancellation; each caller stops waiting
// when its own ctx is done. Failed loads are not cached.
func (c *Cache) GetOrLoad(ctx context.Context, key string) (*Description, error) {
	if d, ok := c.Get(key); ok {
		return d, nil
	}
	if c.loader == nil {
		return nil, fmt.Errorf("%w: %s (no loader)", ErrNotFound, key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if d, ok := c.Get(key); ok {
			return d, nil
		}
		c.loads.Add(1)
		d, err := c.loader.Load(loadCtx, key)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, fmt.Errorf("%w: loader returned nothing for %s", ErrInvalidDescription, key)
		}
		if d.Source == "" {
			d.Source = key
		}
		winner := c.Set(key, d)
		c.logger.Debug("scene description cached",
			log.String("key", key),
			log.Int("elements", winner.Count()),
		)
		return winner, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.logger.Warn("scene description load failed",
				log.String("key", key),
				log.Bool("shared", res.Shared),
				log.Error(res.Err),
			)
			return nil, res.Err
		}
		return res.Val.(*Description), nil
	}
}

// StaticObjectCount is the element count of the cached description, or 0
// when key has not been loaded. It never loads.
func (c *Cache) StaticObjectCount(key string) int {
	d, ok := c.Get(key)
	if !ok {
		return 0
	}
	return d.Count()
}

// Preload loads keys concurrently and returns the first error.
func (c *Cache) Preload(ctx context.Context, keys ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			_, err := c.GetOrLoad(gctx, key)
			return err
		})
	}
	return g.Wait()
}

func (c *Cache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Loads is the number of loader calls made so far.
func (c *Cache) Loads() uint64 {
	return c.loads.Load()
}
