package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiwari-pos/storefront/internal/session"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// useAPI points the commands at an httptest server for the test's duration.
func useAPI(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger = zap.NewNop()
	apiBaseURL = srv.URL
	token = "tok"
	timeout = 5 * time.Second
	t.Cleanup(func() { apiBaseURL, token = "", "" })
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	return cmd, &out
}

func TestOrdersList(t *testing.T) {
	useAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]map[string]interface{}{{
			"_id":             "o1",
			"status":          "paid",
			"cartItems":       []map[string]string{{"menuItemId": "m1", "name": "Sate", "quantity": "2"}},
			"deliveryDetails": map[string]string{"name": "Ani"},
			"totalAmount":     2800,
		}})
	})

	cmd, out := testCmd()
	require.NoError(t, runOrdersList(cmd, nil))

	assert.Contains(t, out.String(), "o1")
	assert.Contains(t, out.String(), "28.00")
	assert.Contains(t, out.String(), "Ani")
}

func TestOrdersSetStatus(t *testing.T) {
	var body map[string]string
	useAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/my/restaurant/order/o1/status", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"_id": "o1", "status": body["status"]})
	})

	cmd, out := testCmd()
	require.NoError(t, runOrdersSetStatus(cmd, []string{"o1", "outForDelivery"}))

	assert.Equal(t, "outForDelivery", body["status"])
	assert.Contains(t, out.String(), "[success] Order updated")
}

func TestOrdersSetStatusRejected(t *testing.T) {
	useAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid status transition", http.StatusBadRequest)
	})

	cmd, out := testCmd()
	err := runOrdersSetStatus(cmd, []string{"o1", "delivered"})

	require.Error(t, err)
	assert.Contains(t, out.String(), "[error] Unable to update order")
}

func TestSearch(t *testing.T) {
	useAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "bandung", q.Get("city"))
		assert.Equal(t, "sate", q.Get("searchQuery"))
		assert.Equal(t, "Indonesian,Sunda", q.Get("selectedCuisines"))
		assert.Equal(t, "2", q.Get("page"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{
				"_id": "r1", "restaurantName": "Warung", "cuisines": []string{"Sunda"},
				"deliveryPrice": 300, "estimatedDeliveryTime": 25,
			}},
			"pagination": map[string]int{"page": 2, "pages": 2, "total": 11},
		})
	})
	searchQuery, searchCuisines, searchSort, searchPage = "sate", []string{"Sunda", "Indonesian"}, "bestMatch", 2

	cmd, out := testCmd()
	require.NoError(t, runSearch(cmd, []string{"bandung"}))

	assert.Contains(t, out.String(), "Warung")
	assert.Contains(t, out.String(), "page 2 of 2 (11 restaurants)")
}

func TestSearchRejectsUnknownSort(t *testing.T) {
	searchSort, searchPage = "rating", 1
	cmd, _ := testCmd()
	assert.Error(t, runSearch(cmd, []string{"bandung"}))
}

func TestCartAddShowRemove(t *testing.T) {
	useAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/restaurant/r1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"_id":       "r1",
			"menuItems": []map[string]interface{}{{"_id": "m1", "name": "Sate", "price": 1250}},
		})
	})

	sessions := session.NewMemoryProvider()
	prev := openSessions
	openSessions = func(ctx context.Context) (session.Provider, func(), error) {
		return sessions, func() {}, nil
	}
	t.Cleanup(func() { openSessions = prev })

	sid := session.NewID()
	cartSession, cartRestaurant = sid.String(), "r1"

	cmd, out := testCmd()
	require.NoError(t, runCartAdd(cmd, []string{"m1"}))
	require.NoError(t, runCartAdd(cmd, []string{"m1"}))
	assert.Contains(t, out.String(), "subtotal 25.00")

	out.Reset()
	require.NoError(t, runCartShow(cmd, nil))
	assert.Contains(t, out.String(), "Sate")

	out.Reset()
	require.NoError(t, runCartRemove(cmd, []string{"m1"}))
	assert.Contains(t, out.String(), "subtotal 0.00")

	assert.Error(t, runCartAdd(cmd, []string{"missing"}))
}

func TestCommandContextDeadline(t *testing.T) {
	prev := timeout
	t.Cleanup(func() { timeout = prev })

	timeout = 0
	ctx, cancel := commandContext()
	_, hasDeadline := ctx.Deadline()
	cancel()
	assert.False(t, hasDeadline, "no deadline expected without --timeout")

	timeout = time.Minute
	ctx, cancel = commandContext()
	_, hasDeadline = ctx.Deadline()
	cancel()
	assert.True(t, hasDeadline)
}

func TestTimeoutFlagDefaultsToNone(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("timeout")
	require.NotNil(t, f)
	assert.Equal(t, "0s", f.DefValue)
}
