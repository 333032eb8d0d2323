package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/storefront/internal/orders"
	"go.uber.org/zap"
)

// OrderHandler handles the operator's order list and status updates.
type OrderHandler struct {
	trackers *registry[*orders.Tracker]
}

// NewOrderHandler creates a new OrderHandler. Each session gets its own
// tracker, so the cached list and the pending markers are per operator tab
// group.
func NewOrderHandler(client orders.Client, notifiers Notifiers, log *zap.Logger, capacity int, opts ...orders.Option) *OrderHandler {
	return &OrderHandler{
		trackers: newRegistry(capacity, func(sid uuid.UUID) *orders.Tracker {
			return orders.NewTracker(client, sessionNotifier(notifiers, log, sid), log, opts...)
		}),
	}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /my/restaurant/orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateStatusResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Pending bool   `json:"pending"`
}

// --- Handlers ---

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	list, err := h.trackers.get(sid).ListOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateStatus forwards the new status as given; the remote service decides
// whether the transition is allowed.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required", "field": "status"})
		return
	}

	tracker := h.trackers.get(sid)
	if err := tracker.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateStatusResponse{
		OrderID: orderID,
		Status:  req.Status,
		Pending: tracker.Pending(orderID),
	})
}
