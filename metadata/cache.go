package metadata

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of lookups kept per invocation.
const DefaultCacheSize = 1024

// CachedProvider memoizes successful lookups of an underlying provider for
// the lifetime of one invocation. Failed lookups are not cached.
type CachedProvider struct {
	next  Provider
	cache *lru.Cache[string, Package]
}

// NewCachedProvider wraps next with an LRU of the given size
func NewCachedProvider(next Provider, size int) (*CachedProvider, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Package](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}
	return &CachedProvider{next: next, cache: cache}, nil
}

// Lookup serves name from the cache, falling through to the wrapped provider
func (c *CachedProvider) Lookup(ctx context.Context, name string) (Package, error) {
	key := Key(name)
	if pkg, ok := c.cache.Get(key); ok {
		return pkg, nil
	}

	pkg, err := c.next.Lookup(ctx, name)
	if err != nil {
		return Package{}, err
	}

	c.cache.Add(key, pkg)
	return pkg, nil
}

// Len reports the number of cached entries
func (c *CachedProvider) Len() int {
	return c.cache.Len()
}
