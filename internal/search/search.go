// Package search owns the composite restaurant search state: free-text
// query, cuisine filter, sort option and page.
//
// Every transition is a pure function of the previous State. Changing the
// query, the cuisine filter or the sort order returns to page 1; SetPage
// changes nothing but the page; ResetQuery clears only the query.
package search

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/kiwari-pos/storefront/internal/enum"
	"github.com/kiwari-pos/storefront/internal/restaurant"
)

// SortOption orders search results.
type SortOption string

const (
	BestMatch             SortOption = enum.SortBestMatch
	PriceLowToHigh        SortOption = enum.SortPriceLowToHigh
	PriceHighToLow        SortOption = enum.SortPriceHighToLow
	DeliveryPrice         SortOption = enum.SortDeliveryPrice
	EstimatedDeliveryTime SortOption = enum.SortEstimatedDeliveryTime
)

// SortOptions lists every option in display order.
var SortOptions = []SortOption{BestMatch, PriceLowToHigh, PriceHighToLow, DeliveryPrice, EstimatedDeliveryTime}

// ParseSortOption returns the option named s.
func ParseSortOption(s string) (SortOption, error) {
	for _, o := range SortOptions {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}

// State is one search request. SelectedCuisines is kept sorted and free of
// duplicates. Page starts at 1.
type State struct {
	Query            string     `json:"searchQuery"`
	Page             int        `json:"page"`
	SelectedCuisines []string   `json:"selectedCuisines"`
	SortOption       SortOption `json:"sortOption"`
}

// DefaultState is the state of a freshly entered search page.
func DefaultState() State {
	return State{Page: 1, SelectedCuisines: []string{}, SortOption: BestMatch}
}

// SetQuery replaces the free-text query and returns to page 1.
func (s State) SetQuery(q string) State {
	s = s.clone()
	s.Query = q
	s.Page = 1
	return s
}

// SetCuisines replaces the cuisine filter and returns to page 1.
func (s State) SetCuisines(cuisines []string) State {
	s.SelectedCuisines = normalizeCuisines(cuisines)
	s.Page = 1
	return s
}

// SetSort changes the sort option and returns to page 1.
func (s State) SetSort(o SortOption) State {
	s = s.clone()
	s.SortOption = o
	s.Page = 1
	return s
}

// SetPage moves to page n. The caller bounds n by the pagination returned
// with the previous result.
func (s State) SetPage(n int) State {
	s = s.clone()
	s.Page = n
	return s
}

// ResetQuery clears the query. Page and filters are kept.
func (s State) ResetQuery() State {
	s = s.clone()
	s.Query = ""
	return s
}

// ToggleCuisine checks or unchecks one cuisine in the filter.
func (s State) ToggleCuisine(c string) State {
	next := make([]string, 0, len(s.SelectedCuisines)+1)
	found := false
	for _, sc := range s.SelectedCuisines {
		if sc == c {
			found = true
			continue
		}
		next = append(next, sc)
	}
	if !found {
		next = append(next, c)
	}
	return s.SetCuisines(next)
}

// Values encodes the state as the query string of GET /search.
func (s State) Values(city string) url.Values {
	v := url.Values{}
	v.Set("searchQuery", s.Query)
	v.Set("selectedCuisines", strings.Join(s.SelectedCuisines, ","))
	v.Set("sortOption", string(s.SortOption))
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("city", city)
	return v
}

func (s State) clone() State {
	s.SelectedCuisines = slices.Clone(s.SelectedCuisines)
	return s
}

func normalizeCuisines(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Pagination describes where a result page sits in the full result set.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// Result is one page of search results.
type Result struct {
	Data       []restaurant.Restaurant `json:"data"`
	Pagination Pagination              `json:"pagination"`
}

// Searcher runs a search against the remote service.
// Satisfied by *api.Client; narrow interface for testability.
type Searcher interface {
	SearchRestaurants(ctx context.Context, city string, s State) (Result, error)
}

// Controller holds the current State of one search page. It caches no
// results: every change is expected to be followed by a fresh search.
// Safe for concurrent use.
type Controller struct {
	mu    sync.Mutex
	city  string
	state State
}

// NewController creates a Controller on the default state.
func NewController() *Controller {
	return &Controller{state: DefaultState()}
}

// Enter starts a search page for city, discarding any previous state.
func (c *Controller) Enter(city string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.city = city
	c.state = DefaultState()
	return c.state
}

// City returns the city of the current search page.
func (c *Controller) City() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.city
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Apply replaces the current state with fn(current) and returns it.
func (c *Controller) Apply(fn func(State) State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	return c.state.clone()
}
