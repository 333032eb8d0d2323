package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/storefront/internal/api"
	"github.com/kiwari-pos/storefront/internal/apperr"
	"github.com/kiwari-pos/storefront/internal/notify"
	"github.com/kiwari-pos/storefront/internal/restaurant"
	"go.uber.org/zap"
)

// maxUploadBytes bounds a manage-restaurant submission including its image.
const maxUploadBytes = 10 << 20

// MyRestaurantClient manages the operator's own restaurant.
// Satisfied by *api.Client; narrow interface for testability.
type MyRestaurantClient interface {
	GetMyRestaurant(ctx context.Context) (*restaurant.Restaurant, error)
	CreateMyRestaurant(ctx context.Context, f restaurant.Form) (*restaurant.Restaurant, error)
	UpdateMyRestaurant(ctx context.Context, f restaurant.Form) (*restaurant.Restaurant, error)
}

var _ MyRestaurantClient = (*api.Client)(nil)

// RestaurantHandler serves the manage-restaurant form.
type RestaurantHandler struct {
	client    MyRestaurantClient
	notifiers Notifiers
	log       *zap.Logger
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(client MyRestaurantClient, notifiers Notifiers, log *zap.Logger) *RestaurantHandler {
	return &RestaurantHandler{client: client, notifiers: notifiers, log: log}
}

// RegisterRoutes registers manage-restaurant endpoints on the given Chi router.
// Expected to be mounted at /my/restaurant.
func (h *RestaurantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/", h.Create)
	r.Put("/", h.Update)
}

// --- Response types ---

type myRestaurantResponse struct {
	Restaurant *restaurant.Restaurant `json:"restaurant"`
	Form       restaurant.Form        `json:"form"`
}

// --- Handlers ---

// Get returns the operator's restaurant with the form prefilled in major
// units. An operator without a restaurant gets a blank form.
func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	rest, err := h.client.GetMyRestaurant(r.Context())
	if errors.Is(err, api.ErrNotFound) {
		writeJSON(w, http.StatusOK, myRestaurantResponse{Form: restaurant.NewForm()})
		return
	}
	if err != nil {
		sessionNotifier(h.notifiers, h.log, sid).Notify(r.Context(), notify.Error("Failed to get restaurant"))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, myRestaurantResponse{Restaurant: rest, Form: restaurant.FormFromRestaurant(rest)})
}

func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, http.StatusCreated, h.client.CreateMyRestaurant, "Restaurant created!", "Unable to create restaurant")
}

func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, http.StatusOK, h.client.UpdateMyRestaurant, "Restaurant updated!", "Unable to update restaurant")
}

type saveFunc func(ctx context.Context, f restaurant.Form) (*restaurant.Restaurant, error)

func (h *RestaurantHandler) save(w http.ResponseWriter, r *http.Request, status int, send saveFunc, okMsg, failMsg string) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}

	form, err := readRestaurantForm(w, r)
	if err == nil {
		err = form.Validate()
	}
	if err != nil {
		writeError(w, err)
		return
	}

	notifier := sessionNotifier(h.notifiers, h.log, sid)
	rest, err := send(r.Context(), form)
	if err != nil {
		notifier.Notify(r.Context(), notify.Error(failMsg))
		writeError(w, err)
		return
	}
	notifier.Notify(r.Context(), notify.Success(okMsg))
	writeJSON(w, status, rest)
}

// readRestaurantForm parses a multipart submission in major units.
func readRestaurantForm(w http.ResponseWriter, r *http.Request) (restaurant.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return restaurant.Form{}, apperr.NewValidation("", "invalid multipart body")
	}

	var image *restaurant.Image
	if file, header, err := r.FormFile("imageFile"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return restaurant.Form{}, apperr.NewValidation("imageFile", "unreadable image")
		}
		image = &restaurant.Image{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	return restaurant.ParseForm(r.MultipartForm.Value, image)
}
