package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Refresher issues a fresh access token.
type Refresher interface {
	Acquire(ctx context.Context) (AccessToken, error)
}

// Sleeper suspends the calling goroutine for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SubmissionClient submits videos for indexing. A submission makes at most
// two calls to the service: the first attempt, and one retry after either a
// token refresh (401) or a Retry-After wait (429).
type SubmissionClient struct {
	b                 *backend
	tokens            Refresher
	streamingPreset   string
	defaultRetryAfter time.Duration
	sleep             Sleeper
	now               func() time.Time
}

// Submit sends video for indexing using token and returns the job ID.
func (c *SubmissionClient) Submit(ctx context.Context, video VideoReference, token AccessToken) (*SubmissionResult, error) {
	const op = "SubmissionClient.Submit"
	logger := c.b.logger.WithFields(logrus.Fields{
		"op":       op,
		"video_id": video.ID,
		"name":     video.Name,
	})

	if strings.TrimSpace(video.URL) == "" {
		return nil, &SubmissionError{Reason: "video url is required"}
	}

	res, err := c.post(ctx, video, token)
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case http.StatusOK:
		return c.result(res, token, false)

	case http.StatusUnauthorized:
		logger.Info("Access token expired, retrying with a new token")
		fresh, err := c.tokens.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		res, err = c.post(ctx, video, fresh)
		if err != nil {
			return nil, err
		}
		if res.Status != http.StatusOK {
			logger.WithField("status", res.Status).Warn("Submission failed after token refresh")
			return nil, submissionError(res, true)
		}
		return c.result(res, fresh, true)

	case http.StatusTooManyRequests:
		wait := parseRetryAfter(res.Header.Get("Retry-After"), c.defaultRetryAfter, c.now())
		logger.WithField("retry_after", wait).Info("Throttled, waiting before retry")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, &CancelledError{Op: op, Err: err}
		}
		res, err = c.post(ctx, video, token)
		if err != nil {
			return nil, err
		}
		switch res.Status {
		case http.StatusOK:
			return c.result(res, token, true)
		case http.StatusTooManyRequests:
			logger.Warn("Still throttled after waiting")
			return nil, &ThrottleExceededError{Status: res.Status, Reason: res.Reason, RetryAfter: wait}
		default:
			logger.WithField("status", res.Status).Warn("Submission failed after throttling")
			return nil, submissionError(res, true)
		}

	default:
		logger.WithFields(logrus.Fields{
			"status": res.Status,
			"reason": res.Reason,
		}).Warn("Submission rejected")
		return nil, submissionError(res, false)
	}
}

func (c *SubmissionClient) post(ctx context.Context, video VideoReference, token AccessToken) (*response, error) {
	const op = "SubmissionClient.Submit"

	query := url.Values{
		"name":             {video.Name},
		"privacy":          {"Private"},
		"videoUrl":         {video.URL},
		"fileName":         {video.Name},
		"accessToken":      {string(token)},
		"sendSuccessEmail": {"true"},
		"streamingPreset":  {c.streamingPreset},
	}

	req, err := c.b.newRequest(ctx, http.MethodPost, c.b.accountPath("Videos"), query, true)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	res, err := c.b.do(req, op)
	if err != nil {
		if isCancelled(err) {
			return nil, err
		}
		return nil, &SubmissionError{Err: err}
	}
	return res, nil
}

func (c *SubmissionClient) result(res *response, token AccessToken, retried bool) (*SubmissionResult, error) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return nil, &SubmissionError{
			Status:  res.Status,
			Reason:  "malformed submission response",
			Retried: retried,
			Err:     errors.Wrap(err, "decode submission response"),
		}
	}
	if body.ID == "" {
		return nil, &SubmissionError{Status: res.Status, Reason: "submission response has no id", Retried: retried}
	}
	return &SubmissionResult{JobID: body.ID, Token: token}, nil
}

func submissionError(res *response, retried bool) *SubmissionError {
	return &SubmissionError{
		Status:  res.Status,
		Reason:  res.Reason,
		Detail:  res.detail(),
		Retried: retried,
	}
}

// parseRetryAfter reads a Retry-After value given either in seconds or as an
// HTTP date. Missing or unreadable values yield fallback.
func parseRetryAfter(v string, fallback time.Duration, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return fallback
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
