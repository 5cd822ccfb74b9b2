package indexer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

var testCreds = Credentials{
	SubscriptionKey: "sub-key",
	AccountID:       "acct-1",
	Location:        "trial",
}

type reply struct {
	status int
	body   string
	header map[string]string
}

func (r reply) write(w http.ResponseWriter) {
	for k, v := range r.header {
		w.Header().Set(k, v)
	}
	w.WriteHeader(r.status)
	io.WriteString(w, r.body)
}

// fakeService emulates the indexing service. Replies are consumed in order;
// the last one repeats once the queue is exhausted.
type fakeService struct {
	mu sync.Mutex

	tokenReplies  []reply
	submitReplies []reply
	indexReplies  []reply

	tokenCalls  int
	submitCalls int
	indexCalls  int

	submitQueries []map[string]string
	tokenHeaders  []http.Header
	indexHeaders  []http.Header
	indexTokens   []string
}

func next(replies []reply, n int) reply {
	if len(replies) == 0 {
		return reply{status: http.StatusInternalServerError}
	}
	if n >= len(replies) {
		return replies[len(replies)-1]
	}
	return replies[n]
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Auth/trial/Accounts/acct-1/AccessToken", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		rep := next(f.tokenReplies, f.tokenCalls)
		f.tokenCalls++
		h := r.Header.Clone()
		h.Set("X-Allow-Edit", r.URL.Query().Get("allowEdit"))
		f.tokenHeaders = append(f.tokenHeaders, h)
		f.mu.Unlock()
		rep.write(w)
	})
	mux.HandleFunc("POST /trial/Accounts/acct-1/Videos", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		rep := next(f.submitReplies, f.submitCalls)
		f.submitCalls++
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		q["header:"+subscriptionKeyHeader] = r.Header.Get(subscriptionKeyHeader)
		f.submitQueries = append(f.submitQueries, q)
		f.mu.Unlock()
		rep.write(w)
	})
	mux.HandleFunc("GET /trial/Accounts/acct-1/Videos/{id}/Index", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		rep := next(f.indexReplies, f.indexCalls)
		f.indexCalls++
		f.indexHeaders = append(f.indexHeaders, r.Header.Clone())
		f.indexTokens = append(f.indexTokens, r.URL.Query().Get("accessToken"))
		f.mu.Unlock()
		rep.write(w)
	})
	return mux
}

func (f *fakeService) count(n *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *n
}

func (f *fakeService) queries() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.submitQueries...)
}

func (f *fakeService) tokenHeadersCopy() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.tokenHeaders...)
}

// recordingSleeper records requested waits instead of sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, f *fakeService, sleep Sleeper) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		Credentials: testCreds,
		BaseURL:     srv.URL,
		HTTPClient:  srv.Client(),
		Logger:      quietLogger(),
		Sleep:       sleep,
	})
}
