package handler_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/storefront/internal/apperr"
	"github.com/kiwari-pos/storefront/internal/handler"
	"github.com/kiwari-pos/storefront/internal/middleware"
	"github.com/kiwari-pos/storefront/internal/restaurant"
	"github.com/kiwari-pos/storefront/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock Searcher ---

type searchCall struct {
	city  string
	state search.State
}

type mockSearcher struct {
	mu       sync.Mutex
	searchFn func(ctx context.Context, city string, s search.State) (search.Result, error)
	calls    []searchCall
}

func (m *mockSearcher) SearchRestaurants(ctx context.Context, city string, s search.State) (search.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, searchCall{city: city, state: s})
	m.mu.Unlock()
	if m.searchFn == nil {
		return search.Result{
			Data:       []restaurant.Restaurant{*warung},
			Pagination: search.Pagination{Page: s.Page, Pages: 3, Total: 25},
		}, nil
	}
	return m.searchFn(ctx, city, s)
}

func (m *mockSearcher) last(t *testing.T) searchCall {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.calls)
	return m.calls[len(m.calls)-1]
}

func setupSearchRouter(searcher search.Searcher, notifiers handler.Notifiers) *chi.Mux {
	h := handler.NewSearchHandler(searcher, notifiers, zap.NewNop(), 8)
	r := chi.NewRouter()
	r.Use(middleware.Session(false))
	r.Route("/search", h.RegisterRoutes)
	return r
}

func TestSearchEnterRunsDefaultSearch(t *testing.T) {
	searcher := &mockSearcher{}
	router := setupSearchRouter(searcher, newMockNotifiers())

	rr := doRequest(t, router, "GET", "/search/bandung", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	call := searcher.last(t)
	assert.Equal(t, "bandung", call.city)
	assert.Equal(t, search.DefaultState(), call.state)

	resp := decodeResponse(t, rr)
	results := resp["results"].(map[string]interface{})
	assert.Len(t, results["data"], 1)
}

func TestSearchStateTransitions(t *testing.T) {
	searcher := &mockSearcher{}
	router := setupSearchRouter(searcher, newMockNotifiers())

	doRequest(t, router, "GET", "/search/bandung", nil)
	doRequest(t, router, "POST", "/search/bandung/page", map[string]int{"page": 3})
	assert.Equal(t, 3, searcher.last(t).state.Page)

	// Changing the query resets the page.
	doRequest(t, router, "POST", "/search/bandung/query", map[string]string{"searchQuery": "sate"})
	call := searcher.last(t)
	assert.Equal(t, "sate", call.state.Query)
	assert.Equal(t, 1, call.state.Page)

	doRequest(t, router, "POST", "/search/bandung/cuisines", map[string][]string{"selectedCuisines": {"Pizza", "Burgers"}})
	assert.Equal(t, []string{"Burgers", "Pizza"}, searcher.last(t).state.SelectedCuisines)

	doRequest(t, router, "POST", "/search/bandung/cuisines", map[string]string{"toggle": "Pizza"})
	assert.Equal(t, []string{"Burgers"}, searcher.last(t).state.SelectedCuisines)

	doRequest(t, router, "POST", "/search/bandung/sort", map[string]string{"sortOption": "deliveryPrice"})
	assert.Equal(t, search.SortOption("deliveryPrice"), searcher.last(t).state.SortOption)

	doRequest(t, router, "POST", "/search/bandung/reset", nil)
	call = searcher.last(t)
	assert.Equal(t, "", call.state.Query)
	assert.Equal(t, []string{"Burgers"}, call.state.SelectedCuisines)
}

func TestSearchEnterResetsState(t *testing.T) {
	searcher := &mockSearcher{}
	router := setupSearchRouter(searcher, newMockNotifiers())

	doRequest(t, router, "POST", "/search/bandung/query", map[string]string{"searchQuery": "sate"})
	doRequest(t, router, "GET", "/search/bandung", nil)

	assert.Equal(t, search.DefaultState(), searcher.last(t).state)
}

func TestSearchRejectsBadInput(t *testing.T) {
	searcher := &mockSearcher{}
	router := setupSearchRouter(searcher, newMockNotifiers())

	rr := doRequest(t, router, "POST", "/search/bandung/page", map[string]int{"page": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, router, "POST", "/search/bandung/sort", map[string]string{"sortOption": "rating"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "sortOption", decodeResponse(t, rr)["field"])

	assert.Empty(t, searcher.calls)
}

func TestSearchFailureNotifies(t *testing.T) {
	searcher := &mockSearcher{searchFn: func(ctx context.Context, city string, s search.State) (search.Result, error) {
		return search.Result{}, apperr.NewRequest("search restaurants", 500, errors.New("boom"))
	}}
	notifiers := newMockNotifiers()
	router := setupSearchRouter(searcher, notifiers)

	rr := doRequest(t, router, "GET", "/search/bandung", nil)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	last, ok := notifiers.recorder(testSession).Last()
	require.True(t, ok)
	assert.Equal(t, "Unable to search restaurants", last.Message)
}
