// Package cart owns the per-restaurant shopping cart of a browser session.
//
// A cart is an ordered list of items unique by id. It is created lazily on
// the first AddItem, written to session storage under "cartItems-{id}" after
// every mutation, and never deleted: removing the last item stores "[]".
//
// Concurrent writers of the same key (two tabs on one restaurant) are
// last-write-wins with no merge.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kiwari-pos/storefront/internal/restaurant"
	"github.com/kiwari-pos/storefront/internal/session"
	"go.uber.org/zap"
)

// KeyPrefix is prepended to the restaurant id to form the storage key.
const KeyPrefix = "cartItems-"

// Item is one cart entry. UnitPrice is in minor units; Quantity is >= 1.
type Item struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Key returns the storage key of a restaurant's cart.
func Key(restaurantID string) string {
	return KeyPrefix + restaurantID
}

// Add returns items with m merged in: an entry with the same id gets its
// quantity incremented (name and price are kept as first added), otherwise
// a new entry with quantity 1 is appended. items is not modified.
func Add(items []Item, m restaurant.MenuItem) []Item {
	out := make([]Item, 0, len(items)+1)
	merged := false
	for _, it := range items {
		if it.ID == m.ID {
			it.Quantity++
			merged = true
		}
		out = append(out, it)
	}
	if !merged {
		out = append(out, Item{ID: m.ID, Name: m.Name, UnitPrice: m.Price, Quantity: 1})
	}
	return out
}

// Remove returns items without the entry whose id is itemID.
// An absent id yields an equal copy. items is not modified.
func Remove(items []Item, itemID string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != itemID {
			out = append(out, it)
		}
	}
	return out
}

// Subtotal is the sum of unit price times quantity, in minor units.
func Subtotal(items []Item) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

// Encode serializes items in the persisted wire form. A nil slice encodes as [].
func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// Decode parses a persisted cart. Entries without an id or with a quantity
// below 1 are dropped and duplicate ids are merged, so ids in the result are
// unique and every quantity is positive.
func Decode(data []byte) ([]Item, error) {
	var raw []Item
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	items := make([]Item, 0, len(raw))
	index := make(map[string]int, len(raw))
	for _, it := range raw {
		if it.ID == "" || it.Quantity < 1 {
			continue
		}
		if i, ok := index[it.ID]; ok {
			items[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	return items, nil
}

// GetCart returns the persisted cart of restaurantID, or an empty cart when
// nothing is stored or the stored value cannot be read. It never fails.
func GetCart(ctx context.Context, storage session.Storage, restaurantID string, log *zap.Logger) []Item {
	if log == nil {
		log = zap.NewNop()
	}
	if restaurantID == "" {
		stateInconsistency(log, "cart load without restaurant id")
		return []Item{}
	}
	data, found, err := storage.GetItem(ctx, Key(restaurantID))
	if err != nil {
		log.Warn("cart storage read failed, starting empty",
			zap.String("restaurant_id", restaurantID), zap.Error(err))
		return []Item{}
	}
	if !found {
		return []Item{}
	}
	items, err := Decode(data)
	if err != nil {
		log.Warn("corrupt persisted cart, starting empty",
			zap.String("restaurant_id", restaurantID), zap.Error(err))
		return []Item{}
	}
	return items
}

// Store is the authoritative cart of one restaurant within one session.
// A Store is not safe for concurrent use.
type Store struct {
	storage      session.Storage
	restaurantID string
	log          *zap.Logger
	items        []Item
}

// Open loads the cart of restaurantID from storage.
func Open(ctx context.Context, storage session.Storage, restaurantID string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		storage:      storage,
		restaurantID: restaurantID,
		log:          log,
		items:        GetCart(ctx, storage, restaurantID, log),
	}
}

// RestaurantID returns the restaurant this cart belongs to.
func (s *Store) RestaurantID() string { return s.restaurantID }

// Items returns a copy of the current cart.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of distinct entries.
func (s *Store) Len() int { return len(s.items) }

// AddItem merges m into the cart and persists it. It returns the new cart.
func (s *Store) AddItem(ctx context.Context, m restaurant.MenuItem) []Item {
	s.items = Add(s.items, m)
	s.persist(ctx)
	return s.Items()
}

// RemoveItem drops itemID from the cart and persists it. It returns the new cart.
func (s *Store) RemoveItem(ctx context.Context, itemID string) []Item {
	s.items = Remove(s.items, itemID)
	s.persist(ctx)
	return s.Items()
}

// persist writes the whole cart. Failures are logged and never surface;
// the in-memory cart stays as mutated.
func (s *Store) persist(ctx context.Context) {
	if s.restaurantID == "" {
		stateInconsistency(s.log, "cart persistence skipped: missing restaurant id")
		return
	}
	data, err := Encode(s.items)
	if err != nil {
		s.log.Warn("cart encode failed", zap.String("restaurant_id", s.restaurantID), zap.Error(err))
		return
	}
	if err := s.storage.SetItem(ctx, Key(s.restaurantID), data); err != nil {
		s.log.Warn("cart persistence failed",
			zap.String("restaurant_id", s.restaurantID), zap.Error(err))
	}
}

func stateInconsistency(log *zap.Logger, msg string) {
	log.Warn(msg, zap.String("kind", "state_inconsistency"))
}
