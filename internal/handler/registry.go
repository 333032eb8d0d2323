package handler

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
)

// DefaultSessionCapacity bounds how many sessions keep in-memory state
// (search controllers, order trackers) at once.
const DefaultSessionCapacity = 4096

// registry keeps one value per session, evicting the least recently used
// session once capacity is reached.
type registry[T any] struct {
	mu    sync.Mutex
	cache *lru.Cache
	newFn func(uuid.UUID) T
}

func newRegistry[T any](capacity int, newFn func(uuid.UUID) T) *registry[T] {
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	cache, err := lru.New(capacity)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &registry[T]{cache: cache, newFn: newFn}
}

// get returns the value of sessionID, creating it on first use.
func (r *registry[T]) get(sessionID uuid.UUID) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache.Get(sessionID); ok {
		return v.(T)
	}
	v := r.newFn(sessionID)
	r.cache.Add(sessionID, v)
	return v
}

func (r *registry[T]) len() int {
	return r.cache.Len()
}
