package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/storefront/internal/apperr"
	"github.com/kiwari-pos/storefront/internal/cart"
	"github.com/kiwari-pos/storefront/internal/checkout"
	"github.com/kiwari-pos/storefront/internal/notify"
	"github.com/kiwari-pos/storefront/internal/session"
	"go.uber.org/zap"
)

// CheckoutHandler hands the caller's cart to the payment flow.
type CheckoutHandler struct {
	restaurants RestaurantGetter
	creator     checkout.SessionCreator
	sessions    session.Provider
	notifiers   Notifiers
	log         *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(restaurants RestaurantGetter, creator checkout.SessionCreator, sessions session.Provider, notifiers Notifiers, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{restaurants: restaurants, creator: creator, sessions: sessions, notifiers: notifiers, log: log}
}

// RegisterRoutes registers the checkout endpoint on the given Chi router.
// Expected to be mounted inside /restaurants/{rid}.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
}

// Checkout answers 303 See Other to the checkout session URL, or 200 with
// {"url": ...} when the caller accepts JSON.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	rid := chi.URLParam(r, "rid")

	profile, err := readProfile(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// Local checks run before any remote call.
	if err := profile.Validate(); err != nil {
		writeError(w, err)
		return
	}
	items := cart.GetCart(r.Context(), h.sessions.Scope(sid), rid, h.log)
	if len(items) == 0 {
		writeError(w, apperr.NewValidation("cartItems", checkout.ErrEmptyCart.Error()))
		return
	}

	notifier := sessionNotifier(h.notifiers, h.log, sid)
	rest, err := h.restaurants.GetRestaurant(r.Context(), rid)
	if err != nil {
		notifier.Notify(r.Context(), notify.Error("Unable to load restaurant"))
		writeError(w, err)
		return
	}

	composer := checkout.NewComposer(h.creator, notifier, h.log)
	url, err := composer.Checkout(r.Context(), rest, items, profile)
	if err != nil {
		writeError(w, err)
		return
	}
	if url == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// readProfile accepts the delivery details as JSON or as a submitted form.
func readProfile(r *http.Request) (checkout.DeliveryProfile, error) {
	var p checkout.DeliveryProfile
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return p, decodeJSON(r, &p)
	}
	if err := r.ParseForm(); err != nil {
		return p, apperr.NewValidation("", "invalid form body")
	}
	p = checkout.DeliveryProfile{
		Name:         r.PostFormValue("name"),
		AddressLine1: r.PostFormValue("addressLine1"),
		City:         r.PostFormValue("city"),
		Country:      r.PostFormValue("country"),
		Email:        r.PostFormValue("email"),
	}
	return p, nil
}
