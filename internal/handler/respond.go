package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kiwari-pos/storefront/internal/apperr"
	"github.com/kiwari-pos/storefront/internal/middleware"
	"github.com/kiwari-pos/storefront/internal/notify"
	"go.uber.org/zap"
)

// Notifiers hands out the notification channel of a browser session.
// Satisfied by *ws.Hub; narrow interface for testability.
type Notifiers interface {
	Notifier(sessionID uuid.UUID) notify.Notifier
}

// sessionNotifier sends to the session's open tabs and to the log.
func sessionNotifier(n Notifiers, log *zap.Logger, sessionID uuid.UUID) notify.Notifier {
	out := notify.Multi{notify.NewLog(log.With(zap.String("session_id", sessionID.String())))}
	if n != nil {
		out = append(out, n.Notifier(sessionID))
	}
	return out
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "no session"})
	}
	return id, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP: validation failures are 400,
// upstream 4xx answers pass through and every other remote failure is 502.
func writeError(w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		body := map[string]interface{}{"error": ve.Error()}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		if fields := fieldErrors(err); len(fields) > 1 {
			body["fields"] = fields
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	if apperr.IsRequest(err) {
		status := apperr.StatusCode(err)
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// fieldErrors collects field -> message from every ValidationError in a
// joined error.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var ve *apperr.ValidationError
		if errors.As(e, &ve) {
			out[ve.Field] = ve.Message
		}
	}
	walk(err)
	return out
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.NewValidation("", "invalid request body")
	}
	return nil
}

// wantsJSON reports whether the caller asked for a JSON answer instead of a
// browser redirect.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
