package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// memStore is a StateStore that copies state in and out like a real backend.
type memStore struct {
	mu      sync.Mutex
	st      domain.State
	updates int
}

func newMemStore(br, ph string) *memStore {
	st := domain.NewState("owner")
	st.Wallet = domain.Balances{BR: dec(br), PH: dec(ph)}
	return &memStore{st: st}
}

func (m *memStore) View(_ context.Context, fn func(domain.State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(clone(m.st))
}

func (m *memStore) Update(_ context.Context, fn func(*domain.State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := clone(m.st)
	if err := fn(&cp); err != nil {
		return err
	}
	m.st = cp
	m.updates++
	return nil
}

func (m *memStore) snapshot() (domain.State, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.st), m.updates
}

func clone(st domain.State) domain.State {
	st.Users = append(domain.UserSet(nil), st.Users...)
	st.Orders = append([]domain.OrderRecord(nil), st.Orders...)
	return st
}

type stubCatalog map[string]domain.Package

func (c stubCatalog) Resolve(game domain.Game, key string) (domain.Package, bool) {
	p, ok := c[key]
	if !ok || p.Game != game {
		return domain.Package{}, false
	}
	return p, true
}

func pkg(key string, region domain.Region, prices ...string) domain.Package {
	p := domain.Package{Key: key, Game: domain.GameMLBB, Region: region}
	for i, price := range prices {
		p.Items = append(p.Items, domain.LineItem{ProductID: key + "-" + string(rune('a'+i)), Price: dec(price)})
	}
	return p
}

var testCatalog = stubCatalog{
	"86":  pkg("86", domain.RegionBR, "61.50"),
	"343": pkg("343", domain.RegionBR, "61.50", "177.50"),
	"3x":  pkg("3x", domain.RegionBR, "10", "20", "30"),
	"11":  pkg("11", domain.RegionPH, "9.50"),
}

type purchaseCall struct {
	ProductID string
	Seen      []string
}

// stubPurchaser answers each call from script by position; missing entries succeed.
type stubPurchaser struct {
	mu     sync.Mutex
	script []func(domain.PurchaseRequest) (domain.PurchaseResult, error)
	calls  []purchaseCall

	// overlap tracking for concurrent orders
	delay     time.Duration
	active    int
	maxActive int
	events    []string
}

func (s *stubPurchaser) Purchase(_ context.Context, req domain.PurchaseRequest) (domain.PurchaseResult, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, purchaseCall{ProductID: req.ProductID, Seen: append([]string(nil), req.Seen...)})
	s.active++
	s.maxActive = max(s.maxActive, s.active)
	s.events = append(s.events, "start "+req.ProductID)
	var step func(domain.PurchaseRequest) (domain.PurchaseResult, error)
	if n < len(s.script) {
		step = s.script[n]
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	defer func() {
		s.mu.Lock()
		s.active--
		s.events = append(s.events, "end "+req.ProductID)
		s.mu.Unlock()
	}()
	if step != nil {
		return step(req)
	}
	return ok("TX-" + req.ProductID)(req)
}

func (s *stubPurchaser) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func ok(id string) func(domain.PurchaseRequest) (domain.PurchaseResult, error) {
	return func(domain.PurchaseRequest) (domain.PurchaseResult, error) {
		return domain.PurchaseResult{DisplayName: "Hero", Transaction: domain.TransactionRef{ID: id}}, nil
	}
}

func assumed(id string) func(domain.PurchaseRequest) (domain.PurchaseResult, error) {
	return func(domain.PurchaseRequest) (domain.PurchaseResult, error) {
		return domain.PurchaseResult{DisplayName: "Hero", Transaction: domain.TransactionRef{ID: id, Assumed: true}}, nil
	}
}

func fail(code domain.FailureCode, msg string) func(domain.PurchaseRequest) (domain.PurchaseResult, error) {
	return func(domain.PurchaseRequest) (domain.PurchaseResult, error) {
		return domain.PurchaseResult{}, domain.Fail(code, "%s", msg)
	}
}

type stubSession struct {
	mu         sync.Mutex
	refreshErr error
	refreshes  int
}

func (s *stubSession) Session(context.Context) (domain.Credential, error) {
	return domain.Credential{Raw: "PHPSESSID=a"}, nil
}

func (s *stubSession) Refresh(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.refreshErr
}

func (s *stubSession) refreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

type recordingEvents struct {
	mu   sync.Mutex
	recs []domain.OrderRecord
	err  error
}

func (r *recordingEvents) PublishOrder(_ context.Context, rec domain.OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return r.err
}

var errBoom = errors.New("boom")
