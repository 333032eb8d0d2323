package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/storefront/internal/api"
	"github.com/kiwari-pos/storefront/internal/cart"
	"github.com/kiwari-pos/storefront/internal/money"
	"github.com/kiwari-pos/storefront/internal/notify"
	"github.com/kiwari-pos/storefront/internal/restaurant"
	"github.com/kiwari-pos/storefront/internal/session"
	"go.uber.org/zap"
)

// RestaurantGetter loads restaurant reference data.
// Satisfied by *api.Client; narrow interface for testability.
type RestaurantGetter interface {
	GetRestaurant(ctx context.Context, id string) (*restaurant.Restaurant, error)
}

var _ RestaurantGetter = (*api.Client)(nil)

// CartHandler handles the per-restaurant cart of the caller's session.
type CartHandler struct {
	restaurants RestaurantGetter
	sessions    session.Provider
	notifiers   Notifiers
	log         *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(restaurants RestaurantGetter, sessions session.Provider, notifiers Notifiers, log *zap.Logger) *CartHandler {
	return &CartHandler{restaurants: restaurants, sessions: sessions, notifiers: notifiers, log: log}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
// Expected to be mounted inside /restaurants/{rid}.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Delete("/cart/items/{itemId}", h.RemoveItem)
}

// --- Request / Response types ---

type addItemRequest struct {
	MenuItemID string `json:"menuItemId"`
}

type cartResponse struct {
	RestaurantID    string      `json:"restaurantId"`
	Items           []cart.Item `json:"items"`
	Subtotal        int64       `json:"subtotal"`
	SubtotalDisplay string      `json:"subtotalDisplay"`
}

func toCartResponse(restaurantID string, items []cart.Item) cartResponse {
	if items == nil {
		items = []cart.Item{}
	}
	subtotal := cart.Subtotal(items)
	return cartResponse{
		RestaurantID:    restaurantID,
		Items:           items,
		Subtotal:        subtotal,
		SubtotalDisplay: money.Format(subtotal),
	}
}

// --- Handlers ---

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	rid := chi.URLParam(r, "rid")
	items := cart.GetCart(r.Context(), h.sessions.Scope(sid), rid, h.log)
	writeJSON(w, http.StatusOK, toCartResponse(rid, items))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	rid := chi.URLParam(r, "rid")

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.MenuItemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menuItemId is required", "field": "menuItemId"})
		return
	}

	// Name and price come from the restaurant record, never from the caller.
	rest, err := h.restaurants.GetRestaurant(r.Context(), rid)
	if err != nil {
		sessionNotifier(h.notifiers, h.log, sid).Notify(r.Context(), notify.Error("Unable to load restaurant"))
		writeError(w, err)
		return
	}
	item, found := rest.MenuItem(req.MenuItemID)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}

	store := cart.Open(r.Context(), h.sessions.Scope(sid), rid, h.log)
	items := store.AddItem(r.Context(), item)
	writeJSON(w, http.StatusOK, toCartResponse(rid, items))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	rid := chi.URLParam(r, "rid")

	store := cart.Open(r.Context(), h.sessions.Scope(sid), rid, h.log)
	items := store.RemoveItem(r.Context(), chi.URLParam(r, "itemId"))
	writeJSON(w, http.StatusOK, toCartResponse(rid, items))
}
