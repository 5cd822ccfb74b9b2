package indexer

// Credentials identify the account every call is made against. They are
// built once at startup and never mutated.
type Credentials struct {
	SubscriptionKey string
	AccountID       string
	Location        string
}

// AccessToken is the short-lived credential required by data-plane calls.
// Its expiry is not tracked locally; a 401 from the service is the only
// signal that it has lapsed.
type AccessToken string

// VideoReference describes a publicly fetchable video to be indexed.
type VideoReference struct {
	URL  string
	Name string
	// ID is assigned by the caller and never sent to the service.
	ID string
}

// SubmissionResult is returned for an accepted submission. Token is the
// token the accepted call was made with, which differs from the caller's
// token when a refresh happened.
type SubmissionResult struct {
	JobID string
	Token AccessToken
}

const (
	StateUploaded   = "Uploaded"
	StateProcessing = "Processing"
	StateProcessed  = "Processed"
	StateFailed     = "Failed"
)

// Progress is a snapshot of an indexing job as reported by the service.
type Progress struct {
	JobID    string `json:"job_id"`
	Progress string `json:"processing_progress"`
	State    string `json:"state,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (p *Progress) Done() bool {
	return p.State == StateProcessed || p.State == StateFailed || p.Progress == StateProcessed
}

func (p *Progress) Failed() bool { return p.State == StateFailed }
