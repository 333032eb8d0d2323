// Package api is the typed client of the remote food-ordering API. Every
// call forwards the bearer token found in its context (see auth.WithToken).
// Timeouts are left to the underlying transport and nothing is retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/kiwari-pos/storefront/internal/apperr"
	"github.com/kiwari-pos/storefront/internal/auth"
	"github.com/kiwari-pos/storefront/internal/checkout"
	"github.com/kiwari-pos/storefront/internal/orders"
	"github.com/kiwari-pos/storefront/internal/restaurant"
	"github.com/kiwari-pos/storefront/internal/search"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

var ErrNotFound = errors.New("not found")

var (
	_ checkout.SessionCreator = (*Client)(nil)
	_ orders.Client           = (*Client)(nil)
	_ search.Searcher         = (*Client)(nil)
)

// Client talks to the remote API at a base URL such as
// "http://localhost:7000/api".
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRestaurant fetches a restaurant with its menu.
func (c *Client) GetRestaurant(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	var r restaurant.Restaurant
	if err := c.doJSON(ctx, "get restaurant", http.MethodGet, "/restaurant/"+url.PathEscape(id), nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SearchRestaurants runs one search for city.
func (c *Client) SearchRestaurants(ctx context.Context, city string, s search.State) (search.Result, error) {
	var res search.Result
	if err := c.doJSON(ctx, "search restaurants", http.MethodGet, "/search", s.Values(city), nil, &res); err != nil {
		return search.Result{}, err
	}
	if res.Data == nil {
		res.Data = []restaurant.Restaurant{}
	}
	return res, nil
}

// CreateCheckoutSession asks for a payment session covering req.
func (c *Client) CreateCheckoutSession(ctx context.Context, req checkout.Request) (checkout.Session, error) {
	var sess checkout.Session
	err := c.doJSON(ctx, "create checkout session", http.MethodPost, "/checkout-session", nil, req, &sess)
	return sess, err
}

// ListMyOrders lists the orders of the caller's restaurant.
func (c *Client) ListMyOrders(ctx context.Context) ([]orders.Order, error) {
	var list []orders.Order
	if err := c.doJSON(ctx, "list orders", http.MethodGet, "/my/restaurant/order", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateOrderStatus sets the status of one order. The remote service decides
// whether the change is allowed.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) (orders.Order, error) {
	var o orders.Order
	path := "/my/restaurant/order/" + url.PathEscape(orderID) + "/status"
	body := map[string]string{"status": status}
	err := c.doJSON(ctx, "update order status", http.MethodPatch, path, nil, body, &o)
	return o, err
}

// GetMyRestaurant fetches the caller's restaurant. A missing restaurant is
// reported as a RequestError wrapping ErrNotFound.
func (c *Client) GetMyRestaurant(ctx context.Context) (*restaurant.Restaurant, error) {
	var r restaurant.Restaurant
	if err := c.doJSON(ctx, "get my restaurant", http.MethodGet, "/my/restaurant", nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateMyRestaurant creates the caller's restaurant from f.
func (c *Client) CreateMyRestaurant(ctx context.Context, f restaurant.Form) (*restaurant.Restaurant, error) {
	return c.sendForm(ctx, "create my restaurant", http.MethodPost, f)
}

// UpdateMyRestaurant replaces the caller's restaurant with f.
func (c *Client) UpdateMyRestaurant(ctx context.Context, f restaurant.Form) (*restaurant.Restaurant, error) {
	return c.sendForm(ctx, "update my restaurant", http.MethodPut, f)
}

func (c *Client) sendForm(ctx context.Context, op, method string, f restaurant.Form) (*restaurant.Restaurant, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := f.WriteMultipart(w); err != nil {
		return nil, apperr.NewRequest(op, 0, err)
	}
	if err := w.Close(); err != nil {
		return nil, apperr.NewRequest(op, 0, err)
	}

	var r restaurant.Restaurant
	if err := c.do(ctx, op, method, "/my/restaurant", nil, w.FormDataContentType(), &buf, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperr.NewRequest(op, 0, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, query, contentType, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return apperr.NewRequest(op, 0, fmt.Errorf("create request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := auth.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("remote request failed", zap.String("op", op), zap.Error(err))
		return apperr.NewRequest(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn("remote request rejected",
			zap.String("op", op), zap.Int("status", resp.StatusCode))
		cause := errors.New(strings.TrimSpace(string(msg)))
		if resp.StatusCode == http.StatusNotFound {
			cause = ErrNotFound
		} else if len(msg) == 0 {
			cause = errors.New(http.StatusText(resp.StatusCode))
		}
		return apperr.NewRequest(op, resp.StatusCode, cause)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.NewRequest(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
