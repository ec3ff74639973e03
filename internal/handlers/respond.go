package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/middleware"
	"github.com/ukydev/transportpro/internal/models"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var errNoCaller = errors.New("user context not found")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps domain error kinds to statuses. Anything else is logged
// and reported as a 500 without its detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		body := map[string]any{"error": e.Message, "kind": e.Kind}
		status := http.StatusBadRequest
		switch e.Kind {
		case apperr.KindPermission:
			status = http.StatusForbidden
		case apperr.KindConflict:
			status = http.StatusConflict
			if e.Count > 0 {
				body["count"] = e.Count
			}
		case apperr.KindNotFound:
			status = http.StatusNotFound
		}
		writeJSON(w, status, body)
		return
	}
	if errors.Is(err, errNoCaller) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "User context not found"})
		return
	}

	log.WithError(err).WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("Request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

// decodeBody reads a JSON request body into v. Numbers keep their literal
// form when v holds interface values.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation("failed to read request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return apperr.Validation("request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid JSON: %s", err.Error())
	}
	return nil
}

func callerOf(r *http.Request) (authz.Caller, error) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return authz.Caller{}, errNoCaller
	}
	return caller, nil
}

// dateParam parses an optional RFC3339 or YYYY-MM-DD query parameter.
func dateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation("invalid %s date %q", name, raw)
	}
	return &t, nil
}

// dateRange reads from and to. A date-only to covers the whole day.
func dateRange(r *http.Request) (from, to *time.Time, err error) {
	if from, err = dateParam(r, "from"); err != nil {
		return nil, nil, err
	}
	if to, err = dateParam(r, "to"); err != nil {
		return nil, nil, err
	}
	if to != nil && len(r.URL.Query().Get("to")) == len("2006-01-02") {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}
