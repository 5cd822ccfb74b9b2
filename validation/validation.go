package validation

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/nijaru/vindex/errors"
)

// maxNameLength is the longest display name the indexing service accepts.
const maxNameLength = 80

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateVideoURL checks that a video URL can be fetched by the indexing
// service: absolute, http or https, with a host.
func (v *Validator) ValidateVideoURL(urlStr string) error {
	const op = "Validator.ValidateVideoURL"

	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.ParseRequestURI(urlStr)
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidInput(op, nil, "URL must use HTTP or HTTPS")
	}

	if parsedURL.Hostname() == "" {
		return errors.InvalidInput(op, nil, "URL must include a host")
	}

	return nil
}

// ValidateName checks a display name. Empty names are allowed; the caller
// assigns one.
func (v *Validator) ValidateName(name string) error {
	const op = "Validator.ValidateName"

	if utf8.RuneCountInString(name) > maxNameLength {
		return errors.InvalidInput(op, nil, fmt.Sprintf("Name must be at most %d characters", maxNameLength))
	}
	return nil
}

// ValidateJobID checks a job identifier taken from a request path.
func (v *Validator) ValidateJobID(id string) error {
	const op = "Validator.ValidateJobID"

	if strings.TrimSpace(id) == "" {
		return errors.InvalidInput(op, nil, "Job ID is required")
	}
	if strings.ContainsAny(id, "/?#") {
		return errors.InvalidInput(op, nil, "Invalid job ID")
	}
	return nil
}

// RequestValidationOpts holds options for request validation
type RequestValidationOpts struct {
	MaxContentLength int64
	AllowedMethods   []string
	RequireJSON      bool
}

// ValidateRequest validates HTTP requests
func (v *Validator) ValidateRequest(r *http.Request, opts RequestValidationOpts) error {
	const op = "Validator.ValidateRequest"

	if len(opts.AllowedMethods) > 0 {
		methodAllowed := false
		for _, method := range opts.AllowedMethods {
			if r.Method == method {
				methodAllowed = true
				break
			}
		}
		if !methodAllowed {
			return errors.InvalidInput(op, nil, fmt.Sprintf("Method %s not allowed", r.Method))
		}
	}

	if opts.RequireJSON {
		if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
			return errors.InvalidInput(op, nil, "Content-Type must be application/json")
		}
	}

	if opts.MaxContentLength > 0 && r.ContentLength > opts.MaxContentLength {
		return errors.InvalidInput(op, nil, "Request body too large")
	}

	return nil
}
