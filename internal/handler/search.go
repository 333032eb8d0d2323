package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/storefront/internal/apperr"
	"github.com/kiwari-pos/storefront/internal/notify"
	"github.com/kiwari-pos/storefront/internal/search"
	"go.uber.org/zap"
)

// SearchHandler drives the search page of each session. Every state change
// is followed by a fresh remote search; results are never cached.
type SearchHandler struct {
	searcher    search.Searcher
	controllers *registry[*search.Controller]
	notifiers   Notifiers
	log         *zap.Logger
}

// NewSearchHandler creates a new SearchHandler keeping at most capacity
// sessions' search state.
func NewSearchHandler(searcher search.Searcher, notifiers Notifiers, log *zap.Logger, capacity int) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		controllers: newRegistry(capacity, func(uuid.UUID) *search.Controller {
			return search.NewController()
		}),
		notifiers: notifiers,
		log:       log,
	}
}

// RegisterRoutes registers search endpoints on the given Chi router.
// Expected to be mounted at /search.
func (h *SearchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{city}", h.Enter)
	r.Post("/{city}/query", h.SetQuery)
	r.Post("/{city}/cuisines", h.SetCuisines)
	r.Post("/{city}/sort", h.SetSort)
	r.Post("/{city}/page", h.SetPage)
	r.Post("/{city}/reset", h.ResetQuery)
}

// --- Request / Response types ---

type setQueryRequest struct {
	SearchQuery string `json:"searchQuery"`
}

type setCuisinesRequest struct {
	SelectedCuisines []string `json:"selectedCuisines"`
	Toggle           string   `json:"toggle"`
}

type setSortRequest struct {
	SortOption string `json:"sortOption"`
}

type setPageRequest struct {
	Page int `json:"page"`
}

type searchResponse struct {
	City    string        `json:"city"`
	State   search.State  `json:"state"`
	Results search.Result `json:"results"`
}

// --- Handlers ---

// Enter starts a new search page for the city with the default state.
func (h *SearchHandler) Enter(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	city := chi.URLParam(r, "city")
	state := h.controllers.get(sid).Enter(city)
	h.respond(w, r, sid, city, state)
}

func (h *SearchHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	var req setQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.apply(w, r, func(s search.State) search.State { return s.SetQuery(req.SearchQuery) })
}

// SetCuisines replaces the cuisine filter, or toggles a single cuisine when
// "toggle" is given.
func (h *SearchHandler) SetCuisines(w http.ResponseWriter, r *http.Request) {
	var req setCuisinesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Toggle != "" {
		h.apply(w, r, func(s search.State) search.State { return s.ToggleCuisine(req.Toggle) })
		return
	}
	h.apply(w, r, func(s search.State) search.State { return s.SetCuisines(req.SelectedCuisines) })
}

func (h *SearchHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req setSortRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	opt, err := search.ParseSortOption(req.SortOption)
	if err != nil {
		writeError(w, apperr.NewValidation("sortOption", err.Error()))
		return
	}
	h.apply(w, r, func(s search.State) search.State { return s.SetSort(opt) })
}

// SetPage moves to a page. The caller picks n from the pagination of the
// previous result; only n < 1 is rejected here.
func (h *SearchHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req setPageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Page < 1 {
		writeError(w, apperr.NewValidation("page", "must be at least 1"))
		return
	}
	h.apply(w, r, func(s search.State) search.State { return s.SetPage(req.Page) })
}

func (h *SearchHandler) ResetQuery(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, search.State.ResetQuery)
}

func (h *SearchHandler) apply(w http.ResponseWriter, r *http.Request, fn func(search.State) search.State) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	city := chi.URLParam(r, "city")
	ctrl := h.controllers.get(sid)
	if ctrl.City() != city {
		ctrl.Enter(city)
	}
	state := ctrl.Apply(fn)
	h.respond(w, r, sid, city, state)
}

func (h *SearchHandler) respond(w http.ResponseWriter, r *http.Request, sid uuid.UUID, city string, state search.State) {
	res, err := h.searcher.SearchRestaurants(r.Context(), city, state)
	if err != nil {
		sessionNotifier(h.notifiers, h.log, sid).Notify(r.Context(), notify.Error("Unable to search restaurants"))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{City: city, State: state, Results: res})
}
