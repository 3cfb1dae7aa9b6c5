package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/obra-dashboard/internal/application/ports"
)

var _ ports.NarrativeCache = (*LRUCache)(nil)

// LRUCache caché en proceso para una sola instancia. El TTL es el de la
// construcción; el ttl de Set se ignora.
type LRUCache struct {
	lru *expirable.LRU[string, string]
}

// NewLRUCache crea una caché con capacidad size y expiración ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 256
	}
	return &LRUCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *LRUCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *LRUCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.lru.Add(key, value)
	return nil
}

// Len número de entradas vigentes.
func (c *LRUCache) Len() int { return c.lru.Len() }
