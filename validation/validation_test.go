package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateVideoURL(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "Empty URL", url: "", wantErr: true},
		{name: "Whitespace URL", url: "   ", wantErr: true},
		{name: "JavaScript URL", url: "javascript:alert(1)", wantErr: true},
		{name: "Invalid URL format", url: "not-a-url", wantErr: true},
		{name: "Non-HTTP scheme", url: "ftp://example.com/video.mp4", wantErr: true},
		{name: "Missing host", url: "https:///video.mp4", wantErr: true},
		{name: "Blob URL", url: "https://account.blob.core.windows.net/frtcontainer/2024-01-01.mp4", wantErr: false},
		{name: "Blob URL with SAS", url: "https://account.blob.core.windows.net/c/v.mp4?sv=2020&sig=abc", wantErr: false},
		{name: "Plain HTTP", url: "http://media.example.com/v.mp4", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVideoURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVideoURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "empty", value: "", wantErr: false},
		{name: "timestamp", value: "2024-01-01 10:00:00.123456", wantErr: false},
		{name: "max length", value: strings.Repeat("a", maxNameLength), wantErr: false},
		{name: "too long", value: strings.Repeat("a", maxNameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validator.ValidateName(tt.value); (err != nil) != tt.wantErr {
				t.Errorf("ValidateName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateJobID(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		id      string
		wantErr bool
	}{
		{id: "3b7c1f2e9a", wantErr: false},
		{id: "", wantErr: true},
		{id: "  ", wantErr: true},
		{id: "a/b", wantErr: true},
		{id: "a?b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if err := validator.ValidateJobID(tt.id); (err != nil) != tt.wantErr {
				t.Errorf("ValidateJobID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		opts        RequestValidationOpts
		wantErr     bool
	}{
		{
			name:   "allowed method",
			method: http.MethodPost,
			opts:   RequestValidationOpts{AllowedMethods: []string{http.MethodPost}},
		},
		{
			name:    "disallowed method",
			method:  http.MethodGet,
			opts:    RequestValidationOpts{AllowedMethods: []string{http.MethodPost}},
			wantErr: true,
		},
		{
			name:        "json required",
			method:      http.MethodPost,
			contentType: "text/plain",
			opts:        RequestValidationOpts{RequireJSON: true},
			wantErr:     true,
		},
		{
			name:    "body too large",
			method:  http.MethodPost,
			body:    strings.Repeat("x", 20),
			opts:    RequestValidationOpts{MaxContentLength: 10},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/videos", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if err := validator.ValidateRequest(req, tt.opts); (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
