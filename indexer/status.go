package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// StatusPoller reads the processing progress of submitted jobs. Each call is
// a single snapshot read; callers decide how often to poll and when to stop.
type StatusPoller struct {
	b *backend
}

type indexResponse struct {
	State  string `json:"state"`
	Videos []struct {
		State              string  `json:"state"`
		ProcessingProgress *string `json:"processingProgress"`
	} `json:"videos"`
}

// Progress returns the processing progress of the first video of jobID.
func (p *StatusPoller) Progress(ctx context.Context, jobID string, token AccessToken) (*Progress, error) {
	const op = "StatusPoller.Progress"

	if strings.TrimSpace(jobID) == "" {
		return nil, &PollError{Reason: "job id is required"}
	}

	query := url.Values{"accessToken": {string(token)}}
	req, err := p.b.newRequest(ctx, http.MethodGet, p.b.accountPath("Videos", jobID, "Index"), query, false)
	if err != nil {
		return nil, &PollError{JobID: jobID, Err: err}
	}

	res, err := p.b.do(req, op)
	if err != nil {
		if isCancelled(err) {
			return nil, err
		}
		return nil, &PollError{JobID: jobID, Err: err}
	}

	if res.Status != http.StatusOK {
		reason := res.Reason
		if d := res.detail(); d != "" {
			reason += " (" + d + ")"
		}
		return nil, &PollError{JobID: jobID, Status: res.Status, Reason: reason}
	}

	var index indexResponse
	if err := json.Unmarshal(res.Body, &index); err != nil {
		return nil, &PollError{
			JobID:  jobID,
			Status: res.Status,
			Reason: "malformed index response",
			Err:    errors.Wrap(err, "decode index response"),
		}
	}
	if len(index.Videos) == 0 {
		return nil, &PollError{JobID: jobID, Status: res.Status, Reason: "index response has no videos"}
	}

	first := index.Videos[0]
	if first.ProcessingProgress == nil {
		return nil, &PollError{JobID: jobID, Status: res.Status, Reason: "index response has no processing progress"}
	}

	state := first.State
	if state == "" {
		state = index.State
	}
	return &Progress{
		JobID:    jobID,
		Progress: *first.ProcessingProgress,
		State:    state,
	}, nil
}
