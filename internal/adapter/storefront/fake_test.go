package storefront

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
)

const (
	testCookie  = "PHPSESSID=abc; cf_clearance=xyz"
	testToken   = "tok123"
	landingHTML = `<html><head><meta name="csrf-token" content="tok123"></head><body>Mobile Legends</body></html>`
)

// fakeStorefront routes by path to swappable handlers and records what it saw.
type fakeStorefront struct {
	*httptest.Server

	mu      sync.Mutex
	routes  map[string]http.HandlerFunc
	hits    map[string]int
	forms   map[string]url.Values
	queries map[string]url.Values
	cookies map[string]string
}

func newFakeStorefront(t *testing.T) *fakeStorefront {
	f := &fakeStorefront{
		routes:  map[string]http.HandlerFunc{},
		hits:    map[string]int{},
		forms:   map[string]url.Values{},
		queries: map[string]url.Values{},
		cookies: map[string]string{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeStorefront) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.forms[r.URL.Path] = r.PostForm
	f.queries[r.URL.Path] = r.URL.Query()
	f.cookies[r.URL.Path] = r.Header.Get("Cookie")
	h := f.routes[r.URL.Path]
	f.mu.Unlock()
	if h == nil {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (f *fakeStorefront) on(path string, h http.HandlerFunc) {
	f.mu.Lock()
	f.routes[path] = h
	f.mu.Unlock()
}

func (f *fakeStorefront) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeStorefront) form(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[path]
}

func (f *fakeStorefront) query(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func (f *fakeStorefront) cookie(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cookies[path]
}

// happyPurchase wires the MLBB BR purchase sequence to succeed with an inline id.
func (f *fakeStorefront) happyPurchase(prefix string) {
	f.on(prefix+"/merchant/mobilelegends", html(http.StatusOK, landingHTML))
	f.on(prefix+"/merchant/mobilelegends/checkrole", jsonBody(`{"code":200,"username":"Hero"}`))
	f.on(prefix+"/merchant/mobilelegends/query", jsonBody(`{"code":200,"flowid":"F1"}`))
	f.on(prefix+"/merchant/mobilelegends/pay", jsonBody(`{"code":200,"msg":"success","data":{"order_id":"TX1"}}`))
}

func html(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

// sequence answers successive calls with the given handlers; the last one repeats.
func sequence(hs ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	n := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := hs[min(n, len(hs)-1)]
		n++
		mu.Unlock()
		h(w, r)
	}
}

type staticSession struct {
	cred domain.Credential
}

func (s *staticSession) Session(context.Context) (domain.Credential, error) {
	return s.cred, nil
}

func (s *staticSession) Refresh(context.Context) error {
	return nil
}

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
}

func newTestClient(t *testing.T, f *fakeStorefront) (*Client, *sleepRecorder) {
	t.Helper()
	c := NewClient(&staticSession{cred: domain.Credential{Raw: testCookie}}, Options{
		BaseURL:           f.URL,
		UserAgent:         "test-agent",
		Timeout:           5 * time.Second,
		HistoryRetryDelay: 2 * time.Second,
		RedeemSettleDelay: 5 * time.Second,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	c.newPlaceholder = func() string { return "AUTO_test" }
	return c, rec
}

func brRequest(pid string, seen ...string) domain.PurchaseRequest {
	return domain.PurchaseRequest{
		Game:      domain.GameMLBB,
		Region:    domain.RegionBR,
		AccountID: "12345",
		ZoneID:    "6789",
		ProductID: pid,
		Seen:      seen,
	}
}
