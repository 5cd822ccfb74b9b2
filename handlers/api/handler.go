package api

import (
	"encoding/json"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/vindex/errors"
	"github.com/nijaru/vindex/middleware"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// UpstreamStatus is the indexing service status behind an error, if any.
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	writeResponse(w, code, Response{
		Success:   code >= 200 && code < 300,
		Data:      payload,
		RequestID: middleware.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

func respondError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	code := http.StatusInternalServerError
	msg := "Internal server error"
	upstream := 0

	var appErr *errors.AppError
	if pkgerrors.As(err, &appErr) {
		code = appErr.Code
		msg = appErr.Message
		upstream = appErr.Upstream
	}

	entry := logger.WithFields(logrus.Fields{
		"error":      err,
		"status":     code,
		"request_id": middleware.RequestIDFromContext(r.Context()),
		"path":       r.URL.Path,
		"method":     r.Method,
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request error")
	} else {
		entry.Warn("Request error")
	}

	writeResponse(w, code, Response{
		Error:          msg,
		UpstreamStatus: upstream,
		RequestID:      middleware.RequestIDFromContext(r.Context()),
		Timestamp:      time.Now().UTC(),
	})
}

func writeResponse(w http.ResponseWriter, code int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

func readJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.InvalidInput("readJSON", err, "Invalid JSON format")
	}
	return nil
}
