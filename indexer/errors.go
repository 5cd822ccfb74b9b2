package indexer

import (
	"fmt"
	"time"
)

// AuthError is returned when the token endpoint answers with anything other
// than a usable token.
type AuthError struct {
	Status int
	Reason string
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	return "indexer: access token request failed: " + describe(e.Status, e.Reason, e.Detail, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// SubmissionError is returned when a submission fails after the applicable
// retry, if any, has been spent.
type SubmissionError struct {
	Status  int
	Reason  string
	Detail  string
	Retried bool
	Err     error
}

func (e *SubmissionError) Error() string {
	msg := "indexer: submission failed"
	if e.Retried {
		msg += " after retry"
	}
	return msg + ": " + describe(e.Status, e.Reason, e.Detail, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ThrottleExceededError is returned when the service is still throttling
// after the single Retry-After wait.
type ThrottleExceededError struct {
	Status     int
	Reason     string
	RetryAfter time.Duration
}

func (e *ThrottleExceededError) Error() string {
	return fmt.Sprintf("indexer: still throttled after waiting %s: %s",
		e.RetryAfter, describe(e.Status, e.Reason, "", nil))
}

// PollError is returned when an index response cannot be turned into a
// progress snapshot.
type PollError struct {
	JobID  string
	Status int
	Reason string
	Err    error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("indexer: progress for job %q unavailable: %s",
		e.JobID, describe(e.Status, e.Reason, "", e.Err))
}

func (e *PollError) Unwrap() error { return e.Err }

// CancelledError is returned when the caller's context ends during a
// request or the Retry-After wait.
type CancelledError struct {
	Op  string
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("indexer: %s cancelled: %v", e.Op, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

func describe(status int, reason, detail string, err error) string {
	var s string
	switch {
	case status != 0 && reason != "":
		s = fmt.Sprintf("status=%d %s", status, reason)
	case status != 0:
		s = fmt.Sprintf("status=%d", status)
	default:
		s = reason
	}
	if detail != "" {
		s += " (" + detail + ")"
	}
	if err != nil {
		if s != "" {
			s += ": "
		}
		s += err.Error()
	}
	return s
}
