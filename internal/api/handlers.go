// Package api implements the HTTP surface: thin handlers that decode
// requests, resolve the acting user, delegate to the repository and render
// the uniform response envelope.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clipstream/internal/auth"
	"clipstream/internal/media"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/storage"
)

const sessionCookieName = "clipstream_session"

type Handler struct {
	Store    storage.Repository
	Sessions *auth.SessionManager
	Media    media.Uploader
}

func NewHandler(store storage.Repository, sessions *auth.SessionManager, uploader media.Uploader) *Handler {
	if sessions == nil {
		sessions = auth.NewSessionManager(24 * time.Hour)
	}
	if uploader == nil {
		uploader = media.NewUploader(media.Config{})
	}
	return &Handler{Store: store, Sessions: sessions, Media: uploader}
}

func (h *Handler) sessionManager() *auth.SessionManager {
	if h.Sessions == nil {
		h.Sessions = auth.NewSessionManager(24 * time.Hour)
	}
	return h.Sessions
}

// envelope is the uniform success shape. Failures use failureEnvelope so the
// errors list is always present, even when empty.
type envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

type failureEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string, details ...string) {
	if details == nil {
		details = []string{}
	}
	writeJSON(w, status, failureEnvelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

// WriteFailure is the exported form used by middleware.
func WriteFailure(w http.ResponseWriter, status int, message string) {
	writeFailure(w, status, message)
}

// writeRepositoryError maps the storage sentinel errors onto envelope
// failures. Anything unrecognised is a 500.
func writeRepositoryError(w http.ResponseWriter, err error) {
	var validation *storage.ValidationError
	switch {
	case errors.As(err, &validation):
		writeFailure(w, http.StatusBadRequest, validation.Error(), validation.Field)
	case errors.Is(err, storage.ErrSelfSubscription):
		writeFailure(w, http.StatusBadRequest, "cannot subscribe to your own channel")
	case errors.Is(err, storage.ErrAlreadyInPlaylist):
		writeFailure(w, http.StatusBadRequest, "video already in playlist")
	case errors.Is(err, storage.ErrNotInPlaylist):
		writeFailure(w, http.StatusNotFound, "video not in playlist")
	case errors.Is(err, storage.ErrForbidden):
		writeFailure(w, http.StatusForbidden, "you do not own this resource")
	case errors.Is(err, storage.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, storage.ErrUsernameTaken):
		writeFailure(w, http.StatusConflict, "username already in use")
	case errors.Is(err, storage.ErrEmailTaken):
		writeFailure(w, http.StatusConflict, "email already in use")
	case errors.Is(err, storage.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, storage.ErrUnavailable):
		writeFailure(w, http.StatusInternalServerError, "datastore unavailable")
	default:
		writeFailure(w, http.StatusInternalServerError, err.Error())
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeFailure(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// requireValidID rejects identifiers that cannot possibly exist before they
// reach the repository.
func requireValidID(w http.ResponseWriter, id, name string) bool {
	if !storage.ValidID(id) {
		writeFailure(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return false
	}
	return true
}

// parsePageRequest reads ?page= and ?limit=, falling back to the documented
// defaults on absent or malformed values.
func parsePageRequest(r *http.Request) storage.PageRequest {
	query := r.URL.Query()
	page := storage.PageRequest{}
	if raw := query.Get("page"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			page.Page = value
		}
	}
	if raw := query.Get("limit"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			page.Limit = value
		}
	}
	return page.Normalize()
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	if token == "" {
		return
	}
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		for _, p := range strings.Split(proto, ",") {
			if strings.EqualFold(strings.TrimSpace(p), "https") {
				return true
			}
		}
	}
	return false
}

// ExtractToken pulls the session token from the Authorization header or the
// session cookie.
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// recordEngagement feeds the metrics counters without making handlers depend
// on a particular recorder instance.
func recordEngagement(event string) {
	metrics.CountEngagement(event)
}
