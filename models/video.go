package models

import (
	"time"

	"github.com/nijaru/vindex/indexer"
)

// SubmitRequest is what the upload layer hands over: a publicly fetchable
// video URL and the name to show for it.
type SubmitRequest struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// Submission is returned to the display layer once the service accepted a
// video.
type Submission struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	AccessToken string    `json:"access_token"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ProgressResponse represents the API response for a progress read
type ProgressResponse struct {
	JobID    string `json:"job_id"`
	Progress string `json:"processing_progress"`
	State    string `json:"state,omitempty"`
	Done     bool   `json:"done"`
}

// NewProgressResponse creates a response from a progress snapshot
func NewProgressResponse(p *indexer.Progress) *ProgressResponse {
	return &ProgressResponse{
		JobID:    p.JobID,
		Progress: p.Progress,
		State:    p.State,
		Done:     p.Done(),
	}
}
