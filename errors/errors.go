package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"

	"github.com/nijaru/vindex/indexer"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
	// Upstream is the status returned by the indexing service, if any.
	Upstream int `json:"upstream_status,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func InvalidInput(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func NotFound(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func Internal(op string, err error, message string) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Upstream reports a failure of the indexing service itself.
func Upstream(op string, err error, message string, status int) *AppError {
	return &AppError{
		Code:     http.StatusBadGateway,
		Message:  message,
		Op:       op,
		Err:      err,
		Upstream: status,
	}
}

// FromIndexer translates an indexer error into an AppError whose message is
// safe to show to the user and still names the upstream status and reason.
func FromIndexer(op string, err error) *AppError {
	var (
		appErr    *AppError
		authErr   *indexer.AuthError
		subErr    *indexer.SubmissionError
		thErr     *indexer.ThrottleExceededError
		pollErr   *indexer.PollError
		cancelErr *indexer.CancelledError
	)

	switch {
	case pkgerrors.As(err, &appErr):
		return appErr
	case pkgerrors.As(err, &cancelErr):
		return &AppError{
			Code:    http.StatusServiceUnavailable,
			Message: "Request cancelled before the indexing service answered",
			Op:      op,
			Err:     err,
		}
	case pkgerrors.As(err, &thErr):
		return &AppError{
			Code:     http.StatusTooManyRequests,
			Message:  fmt.Sprintf("Indexing service is still throttling requests after waiting %s", thErr.RetryAfter),
			Op:       op,
			Err:      err,
			Upstream: thErr.Status,
		}
	case pkgerrors.As(err, &authErr):
		return Upstream(op, err, "Could not obtain an access token: "+reason(authErr.Status, authErr.Reason, authErr.Detail), authErr.Status)
	case pkgerrors.As(err, &subErr):
		if subErr.Status == 0 && subErr.Err == nil {
			return InvalidInput(op, err, subErr.Reason)
		}
		return Upstream(op, err, "Video submission failed: "+reason(subErr.Status, subErr.Reason, subErr.Detail), subErr.Status)
	case pkgerrors.As(err, &pollErr):
		switch {
		case pollErr.Status == 0 && pollErr.Err == nil:
			return InvalidInput(op, err, pollErr.Reason)
		case pollErr.Status == http.StatusNotFound:
			return NotFound(op, err, "Indexing job not found")
		case pollErr.Status == http.StatusUnauthorized:
			return &AppError{
				Code:     http.StatusUnauthorized,
				Message:  "Access token expired or invalid",
				Op:       op,
				Err:      err,
				Upstream: pollErr.Status,
			}
		}
		return Upstream(op, err, "Could not read indexing progress: "+reason(pollErr.Status, pollErr.Reason, ""), pollErr.Status)
	default:
		return Internal(op, err, "Internal server error")
	}
}

func reason(status int, reason, detail string) string {
	s := reason
	if status != 0 {
		s = fmt.Sprintf("%d %s", status, reason)
	}
	if detail != "" {
		s += " (" + detail + ")"
	}
	if s == "" {
		s = "unavailable"
	}
	return s
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return pkgerrors.As(err, &appErr) && appErr.Code == http.StatusNotFound
}
