package handler

import (
	"testing"

	"github.com/google/uuid"
)

func TestRegistryReusesValuePerSession(t *testing.T) {
	created := 0
	reg := newRegistry(2, func(uuid.UUID) *int {
		created++
		n := created
		return &n
	})

	a, b := uuid.New(), uuid.New()
	if reg.get(a) != reg.get(a) {
		t.Fatal("expected the same value for the same session")
	}
	if reg.get(a) == reg.get(b) {
		t.Fatal("expected distinct values per session")
	}
	if created != 2 {
		t.Errorf("created: got %d, want 2", created)
	}
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	reg := newRegistry(2, func(uuid.UUID) *int { return new(int) })

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	va := reg.get(a)
	*va = 7
	reg.get(b)
	reg.get(a) // a is now most recent
	reg.get(c) // evicts b

	if reg.len() != 2 {
		t.Fatalf("len: got %d, want 2", reg.len())
	}
	if *reg.get(a) != 7 {
		t.Error("expected a to survive eviction")
	}
}

func TestRegistryDefaultCapacity(t *testing.T) {
	reg := newRegistry(0, func(uuid.UUID) struct{} { return struct{}{} })
	reg.get(uuid.New())
	if reg.len() != 1 {
		t.Errorf("len: got %d, want 1", reg.len())
	}
}
