package video

import (
	"context"
	"time"

	"github.com/nijaru/vindex/indexer"
	"github.com/nijaru/vindex/models"
)

type Service interface {
	// Submit acquires a token and sends the video for indexing
	Submit(ctx context.Context, req models.SubmitRequest) (*models.Submission, error)

	// Token acquires an access token for display
	Token(ctx context.Context) (indexer.AccessToken, error)

	// Progress reads one progress snapshot; an empty token is acquired first
	Progress(ctx context.Context, jobID string, token indexer.AccessToken) (*indexer.Progress, error)

	// Wait polls until the job is processed or failed, or ctx ends
	Wait(ctx context.Context, jobID string, token indexer.AccessToken, onUpdate func(*indexer.Progress)) (*indexer.Progress, error)
}

// Indexer is the part of indexer.Client the service depends on.
type Indexer interface {
	AccessToken(ctx context.Context) (indexer.AccessToken, error)
	Submit(ctx context.Context, video indexer.VideoReference, token indexer.AccessToken) (*indexer.SubmissionResult, error)
	Progress(ctx context.Context, jobID string, token indexer.AccessToken) (*indexer.Progress, error)
}

type Config struct {
	// PollInterval is the time between progress reads in Wait
	PollInterval time.Duration `json:"poll_interval"`
}
