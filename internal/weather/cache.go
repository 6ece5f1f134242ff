package weather

import (
	"sync/atomic"
	"time"
)

// LatestCache is a single-slot holder for the most recent Reading.
// Set replaces the whole Reading; Get never blocks.
type LatestCache struct {
	slot atomic.Pointer[Reading]
}

// NewLatestCache creates a cache holding the all-default Reading stamped with now.
func NewLatestCache(now time.Time) *LatestCache {
	c := &LatestCache{}
	c.Set(DefaultReading(now))
	return c
}

// Set unconditionally replaces the cached Reading.
func (c *LatestCache) Set(r Reading) {
	c.slot.Store(&r)
}

// Get returns a copy of the cached Reading.
func (c *LatestCache) Get() Reading {
	return *c.slot.Load()
}
