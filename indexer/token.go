package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// TokenProvider obtains access tokens from the service's auth endpoint.
// It never retries; refreshing on expiry is up to the caller.
type TokenProvider struct {
	b *backend
}

// Acquire requests a new access token with edit permission.
func (p *TokenProvider) Acquire(ctx context.Context) (AccessToken, error) {
	const op = "TokenProvider.Acquire"

	path := "/Auth" + p.b.accountPath("AccessToken")
	query := url.Values{"allowEdit": {"true"}}

	req, err := p.b.newRequest(ctx, http.MethodGet, path, query, true)
	if err != nil {
		return "", &AuthError{Err: err}
	}

	res, err := p.b.do(req, op)
	if err != nil {
		if isCancelled(err) {
			return "", err
		}
		return "", &AuthError{Err: err}
	}

	if res.Status != http.StatusOK {
		p.b.logger.WithFields(logrus.Fields{
			"op":     op,
			"status": res.Status,
			"reason": res.Reason,
		}).Warn("Access token request rejected")
		return "", &AuthError{Status: res.Status, Reason: res.Reason, Detail: res.detail()}
	}

	token := parseToken(res.Body)
	if token == "" {
		return "", &AuthError{Reason: "empty access token"}
	}
	return token, nil
}

// parseToken accepts both the JSON string the service normally returns and
// a bare token.
func parseToken(body []byte) AccessToken {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return AccessToken(strings.TrimSpace(s))
	}
	return AccessToken(strings.Trim(strings.TrimSpace(string(body)), `"`))
}
