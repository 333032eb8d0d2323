// Package orders tracks a restaurant operator's active orders and forwards
// status changes to the remote service.
//
// The remote service is the only authority on order status: a status is an
// opaque string and no transition is checked locally. The cached order list
// is replaced by fetches and never patched by updates.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kiwari-pos/storefront/internal/checkout"
	"github.com/kiwari-pos/storefront/internal/notify"
	"go.uber.org/zap"
)

const (
	msgUpdated      = "Order updated"
	msgUpdateFailed = "Unable to update order"
	msgFetchFailed  = "Unable to fetch orders"
)

// Quantity is an item count that the remote service may send either as a
// JSON number or as a decimal string.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("parse quantity %q: %w", s, err)
		}
		*q = Quantity(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*q = Quantity(n)
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(q)))
}

// Item is one ordered menu item.
type Item struct {
	MenuItemID string   `json:"menuItemId"`
	Name       string   `json:"name"`
	Quantity   Quantity `json:"quantity"`
}

// Order is the remote order record.
type Order struct {
	ID              string                   `json:"_id"`
	RestaurantID    string                   `json:"restaurantId,omitempty"`
	Status          string                   `json:"status"`
	CartItems       []Item                   `json:"cartItems"`
	DeliveryDetails checkout.DeliveryProfile `json:"deliveryDetails"`
	TotalAmount     int64                    `json:"totalAmount"`
	CreatedAt       time.Time                `json:"createdAt"`
}

// Client reads and updates orders on the remote service.
// Satisfied by *api.Client; narrow interface for testability.
type Client interface {
	ListMyOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (Order, error)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRefreshOnSuccess re-fetches the order list after every accepted status
// update. Without it the list stays as last fetched until the next explicit
// ListOrders.
func WithRefreshOnSuccess(on bool) Option {
	return func(t *Tracker) { t.refresh = on }
}

// Tracker holds the last fetched order list and the in-flight status updates.
// Safe for concurrent use: updates for different orders run independently.
type Tracker struct {
	client   Client
	notifier notify.Notifier
	log      *zap.Logger
	refresh  bool

	mu      sync.Mutex
	orders  []Order
	pending map[string]int
}

// NewTracker creates a Tracker. A nil notifier discards notifications.
func NewTracker(client Client, notifier notify.Notifier, log *zap.Logger, opts ...Option) *Tracker {
	if notifier == nil {
		notifier = notify.Nop
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{
		client:   client,
		notifier: notifier,
		log:      log,
		pending:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ListOrders fetches the current orders and replaces the cached list.
// On failure the cache is left as it was.
func (t *Tracker) ListOrders(ctx context.Context) ([]Order, error) {
	list, err := t.client.ListMyOrders(ctx)
	if err != nil {
		t.log.Warn("list orders failed", zap.Error(err))
		t.notifier.Notify(ctx, notify.Error(msgFetchFailed))
		return nil, err
	}
	if list == nil {
		list = []Order{}
	}

	t.mu.Lock()
	t.orders = list
	t.mu.Unlock()

	return t.Orders(), nil
}

// Orders returns a copy of the cached order list.
func (t *Tracker) Orders() []Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Order, len(t.orders))
	copy(out, t.orders)
	return out
}

// UpdateStatus asks the remote service to move orderID to status.
//
// While the call is in flight Pending(orderID) reports true. A second call
// for the same order is sent as well; the marker clears once every call for
// the order has finished. On success a success notification is raised, on
// failure an error notification, and the error is returned so the caller
// can offer a retry.
func (t *Tracker) UpdateStatus(ctx context.Context, orderID, status string) error {
	t.begin(orderID)
	_, err := t.client.UpdateOrderStatus(ctx, orderID, status)
	t.end(orderID)

	if err != nil {
		t.log.Warn("update order status failed",
			zap.String("order_id", orderID), zap.String("status", status), zap.Error(err))
		t.notifier.Notify(ctx, notify.Error(msgUpdateFailed))
		return err
	}

	t.log.Info("order status updated", zap.String("order_id", orderID), zap.String("status", status))
	t.notifier.Notify(ctx, notify.Success(msgUpdated))

	if t.refresh {
		if _, err := t.ListOrders(ctx); err != nil {
			t.log.Warn("refresh after status update failed", zap.Error(err))
		}
	}
	return nil
}

// Pending reports whether a status update for orderID is in flight.
func (t *Tracker) Pending(orderID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending[orderID] > 0
}

func (t *Tracker) begin(orderID string) {
	t.mu.Lock()
	t.pending[orderID]++
	t.mu.Unlock()
}

func (t *Tracker) end(orderID string) {
	t.mu.Lock()
	if t.pending[orderID] <= 1 {
		delete(t.pending, orderID)
	} else {
		t.pending[orderID]--
	}
	t.mu.Unlock()
}
