package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryProvider keeps every session area in process memory. Areas vanish
// with the process, which matches the lifetime of browser session storage.
type MemoryProvider struct {
	mu    sync.RWMutex
	areas map[uuid.UUID]map[string][]byte
}

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{areas: make(map[uuid.UUID]map[string][]byte)}
}

// Scope returns the storage area of sessionID.
func (p *MemoryProvider) Scope(sessionID uuid.UUID) Storage {
	return &memoryArea{p: p, id: sessionID}
}

type memoryArea struct {
	p  *MemoryProvider
	id uuid.UUID
}

func (a *memoryArea) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	a.p.mu.RLock()
	defer a.p.mu.RUnlock()

	v, ok := a.p.areas[a.id][key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (a *memoryArea) SetItem(_ context.Context, key string, value []byte) error {
	a.p.mu.Lock()
	defer a.p.mu.Unlock()

	if a.p.areas[a.id] == nil {
		a.p.areas[a.id] = make(map[string][]byte)
	}
	v := make([]byte, len(value))
	copy(v, value)
	a.p.areas[a.id][key] = v
	return nil
}
