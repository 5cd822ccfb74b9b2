package indexer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.videoindexer.ai"

	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

	// maxBodySize bounds how much of a response is read into memory.
	maxBodySize = 4 << 20
)

// response is the part of an HTTP response the components act on.
type response struct {
	Status int
	Reason string
	Header http.Header
	Body   []byte
}

// serviceError is the error document the service returns with most non-2xx
// responses.
type serviceError struct {
	ErrorType string `json:"ErrorType"`
	Message   string `json:"Message"`
}

// detail extracts a short description from an error body, if it has one.
func (r *response) detail() string {
	var se serviceError
	if err := json.Unmarshal(r.Body, &se); err != nil {
		return ""
	}
	switch {
	case se.ErrorType != "" && se.Message != "":
		return se.ErrorType + ": " + se.Message
	case se.ErrorType != "":
		return se.ErrorType
	default:
		return se.Message
	}
}

// backend makes the HTTP calls shared by all components.
type backend struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

// accountPath returns /{location}/Accounts/{accountId} followed by elems.
func (b *backend) accountPath(elems ...string) string {
	parts := []string{"", url.PathEscape(b.creds.Location), "Accounts", url.PathEscape(b.creds.AccountID)}
	for _, e := range elems {
		parts = append(parts, url.PathEscape(e))
	}
	return strings.Join(parts, "/")
}

func (b *backend) newRequest(ctx context.Context, method, path string, query url.Values, withKey bool) (*http.Request, error) {
	u := strings.TrimRight(b.baseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if withKey {
		req.Header.Set(subscriptionKeyHeader, b.creds.SubscriptionKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do issues req and reads the whole response. Any status is returned as a
// response; only transport failures become errors. Context cancellation is
// reported as *CancelledError.
func (b *backend) do(req *http.Request, op string) (*response, error) {
	ctx := req.Context()
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, &CancelledError{Op: op, Err: ctx.Err()}
			}
			return nil, errors.Wrap(err, "rate limiter")
		}
	}

	start := time.Now()
	res, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &CancelledError{Op: op, Err: ctx.Err()}
		}
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, &CancelledError{Op: op, Err: ctx.Err()}
		}
		return nil, errors.Wrap(err, "read response body")
	}

	b.logger.WithFields(logrus.Fields{
		"op":       op,
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   res.StatusCode,
		"duration": time.Since(start),
	}).Debug("Indexer call completed")

	return &response{
		Status: res.StatusCode,
		Reason: reasonPhrase(res),
		Header: res.Header,
		Body:   body,
	}, nil
}

// reasonPhrase returns the reason from the status line, e.g. "Unauthorized"
// from "401 Unauthorized".
func reasonPhrase(res *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if reason == "" {
		reason = http.StatusText(res.StatusCode)
	}
	return reason
}

func isCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}
