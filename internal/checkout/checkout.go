// Package checkout turns a cart and a delivery profile into a remote
// checkout session and hands the caller the session's redirect URL.
package checkout

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	"github.com/kiwari-pos/storefront/internal/apperr"
	"github.com/kiwari-pos/storefront/internal/cart"
	"github.com/kiwari-pos/storefront/internal/notify"
	"github.com/kiwari-pos/storefront/internal/restaurant"
	"go.uber.org/zap"
)

var (
	ErrMissingRedirectURL = errors.New("checkout session has no redirect url")
	ErrEmptyCart          = errors.New("cart is empty")
)

const failureMessage = "Unable to create checkout session"

// DeliveryProfile is where and to whom the order is delivered.
type DeliveryProfile struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Email        string `json:"email"`
}

// Validate checks that every field is present and that Email is an address.
func (p DeliveryProfile) Validate() error {
	required := []struct{ field, value string }{
		{"name", p.Name},
		{"addressLine1", p.AddressLine1},
		{"city", p.City},
		{"country", p.Country},
		{"email", p.Email},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.NewValidation(r.field, "is required")
		}
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return apperr.NewValidation("email", "must be a valid email address")
	}
	return nil
}

// LineItem is one cart entry as the checkout endpoint expects it.
// Quantity travels as a decimal string.
type LineItem struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
}

// Request is the body of POST /checkout-session.
type Request struct {
	CartItems       []LineItem      `json:"cartItems"`
	RestaurantID    string          `json:"restaurantId"`
	DeliveryDetails DeliveryProfile `json:"deliveryDetails"`
}

// Session is the remote answer to a checkout session request.
type Session struct {
	URL string `json:"url"`
}

// SessionCreator creates checkout sessions.
// Satisfied by *api.Client; narrow interface for testability.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, req Request) (Session, error)
}

// BuildRequest maps cart items onto the checkout wire form.
func BuildRequest(restaurantID string, items []cart.Item, profile DeliveryProfile) Request {
	lines := make([]LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, LineItem{
			MenuItemID: it.ID,
			Name:       it.Name,
			Quantity:   strconv.Itoa(it.Quantity),
		})
	}
	return Request{CartItems: lines, RestaurantID: restaurantID, DeliveryDetails: profile}
}

// Composer submits checkout requests. It never modifies the cart it is given.
type Composer struct {
	sessions SessionCreator
	notifier notify.Notifier
	log      *zap.Logger
}

// NewComposer creates a Composer. A nil notifier discards notifications.
func NewComposer(sessions SessionCreator, notifier notify.Notifier, log *zap.Logger) *Composer {
	if notifier == nil {
		notifier = notify.Nop
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{sessions: sessions, notifier: notifier, log: log}
}

// Checkout validates profile, creates a checkout session for items and
// returns the URL the caller must navigate to.
//
// A nil restaurant makes Checkout a no-op returning "" and nil. Validation
// failures are returned before any remote call. Remote failures, including
// a session without a usable URL, are returned as *apperr.RequestError and
// raise an error notification.
func (c *Composer) Checkout(ctx context.Context, r *restaurant.Restaurant, items []cart.Item, profile DeliveryProfile) (string, error) {
	if r == nil {
		return "", nil
	}
	if len(items) == 0 {
		return "", apperr.NewValidation("cartItems", ErrEmptyCart.Error())
	}
	if err := profile.Validate(); err != nil {
		return "", err
	}

	req := BuildRequest(r.ID, items, profile)
	sess, err := c.sessions.CreateCheckoutSession(ctx, req)
	if err != nil {
		c.fail(ctx, r.ID, err)
		if !apperr.IsRequest(err) {
			err = apperr.NewRequest("create checkout session", 0, err)
		}
		return "", err
	}
	if !redirectable(sess.URL) {
		err := apperr.NewRequest("create checkout session", 0, ErrMissingRedirectURL)
		c.fail(ctx, r.ID, err)
		return "", err
	}

	c.log.Info("checkout session created",
		zap.String("restaurant_id", r.ID), zap.Int("line_items", len(req.CartItems)))
	return sess.URL, nil
}

func (c *Composer) fail(ctx context.Context, restaurantID string, err error) {
	c.log.Warn("checkout failed", zap.String("restaurant_id", restaurantID), zap.Error(err))
	c.notifier.Notify(ctx, notify.Error(failureMessage))
}

func redirectable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
