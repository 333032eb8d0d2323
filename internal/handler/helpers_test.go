package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/kiwari-pos/storefront/internal/middleware"
	"github.com/kiwari-pos/storefront/internal/notify"
	"github.com/kiwari-pos/storefront/internal/restaurant"
)

var testSession = uuid.MustParse("6f1c1c3e-8d7a-4df0-9a55-2f0b6c1d9e01")

// --- Mock RestaurantGetter ---

type mockRestaurants struct {
	getFn func(ctx context.Context, id string) (*restaurant.Restaurant, error)
}

func (m *mockRestaurants) GetRestaurant(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	return m.getFn(ctx, id)
}

func fixedRestaurant(r *restaurant.Restaurant) *mockRestaurants {
	return &mockRestaurants{getFn: func(ctx context.Context, id string) (*restaurant.Restaurant, error) {
		return r, nil
	}}
}

var warung = &restaurant.Restaurant{
	ID:             "r1",
	RestaurantName: "Warung",
	DeliveryPrice:  300,
	MenuItems: []restaurant.MenuItem{
		{ID: "m1", Name: "Burger", Price: 500},
		{ID: "m2", Name: "Fries", Price: 250},
	},
}

// --- Mock Notifiers ---

type mockNotifiers struct {
	mu   sync.Mutex
	recs map[uuid.UUID]*notify.Recorder
}

func newMockNotifiers() *mockNotifiers {
	return &mockNotifiers{recs: make(map[uuid.UUID]*notify.Recorder)}
}

func (m *mockNotifiers) Notifier(sessionID uuid.UUID) notify.Notifier {
	return m.recorder(sessionID)
}

func (m *mockNotifiers) recorder(sessionID uuid.UUID) *notify.Recorder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recs[sessionID] == nil {
		m.recs[sessionID] = &notify.Recorder{}
	}
	return m.recs[sessionID]
}

// --- Request helpers ---

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: testSession.String()})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
	return resp
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
