package indexer

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultStreamingPreset   = "Default"
	defaultRetryAfter        = time.Second
	defaultHTTPClientTimeout = 30 * time.Second
)

// ClientConfig configures a Client. Only Credentials is required.
type ClientConfig struct {
	Credentials Credentials

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// HTTPClient is optional and defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// StreamingPreset is sent with every submission, "Default" if empty.
	StreamingPreset string
	// DefaultRetryAfter is used when a 429 carries no usable Retry-After.
	DefaultRetryAfter time.Duration
	// RequestsPerSecond paces outgoing calls. Zero disables pacing.
	RequestsPerSecond float64

	Logger *logrus.Logger
	// Sleep replaces the Retry-After wait; used by tests.
	Sleep Sleeper
}

// Client bundles the token, submission and status components around a
// shared HTTP backend.
type Client struct {
	Tokens      *TokenProvider
	Submissions *SubmissionClient
	Status      *StatusPoller
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPClientTimeout}
	}
	if cfg.StreamingPreset == "" {
		cfg.StreamingPreset = defaultStreamingPreset
	}
	if cfg.DefaultRetryAfter <= 0 {
		cfg.DefaultRetryAfter = defaultRetryAfter
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}

	b := &backend{
		baseURL:    cfg.BaseURL,
		creds:      cfg.Credentials,
		httpClient: cfg.HTTPClient,
		logger: cfg.Logger.WithFields(logrus.Fields{
			"component": "indexer",
			"account":   cfg.Credentials.AccountID,
			"location":  cfg.Credentials.Location,
		}),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	tokens := &TokenProvider{b: b}
	return &Client{
		Tokens: tokens,
		Submissions: &SubmissionClient{
			b:                 b,
			tokens:            tokens,
			streamingPreset:   cfg.StreamingPreset,
			defaultRetryAfter: cfg.DefaultRetryAfter,
			sleep:             cfg.Sleep,
			now:               time.Now,
		},
		Status: &StatusPoller{b: b},
	}
}

// AccessToken acquires a new access token.
func (c *Client) AccessToken(ctx context.Context) (AccessToken, error) {
	return c.Tokens.Acquire(ctx)
}

// Submit sends video for indexing. See SubmissionClient.Submit.
func (c *Client) Submit(ctx context.Context, video VideoReference, token AccessToken) (*SubmissionResult, error) {
	return c.Submissions.Submit(ctx, video, token)
}

// Progress reads the current progress of jobID. See StatusPoller.Progress.
func (c *Client) Progress(ctx context.Context, jobID string, token AccessToken) (*Progress, error) {
	return c.Status.Progress(ctx, jobID, token)
}
