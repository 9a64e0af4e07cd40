package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 8, 0, 5, 0, time.UTC)

type fulfillFixture struct {
	uc        *Fulfill
	store     *memStore
	purchaser *stubPurchaser
	session   *stubSession
	events    *recordingEvents
	pauses    []time.Duration
}

func newFulfillFixture(br string, script ...func(domain.PurchaseRequest) (domain.PurchaseResult, error)) *fulfillFixture {
	f := &fulfillFixture{
		store:     newMemStore(br, "0"),
		purchaser: &stubPurchaser{script: script},
		session:   &stubSession{},
		events:    &recordingEvents{},
	}
	f.uc = &Fulfill{
		Catalog:      testCatalog,
		Ledger:       NewLedger(f.store),
		Purchaser:    f.purchaser,
		Session:      f.session,
		Lock:         NewTxLock(),
		Events:       f.events,
		Logger:       discard,
		Location:     time.UTC,
		ItemDelayMin: time.Millisecond,
		ItemDelayMax: 3 * time.Millisecond,
		Now:          func() time.Time { return fixedNow },
		Pause:        func(d time.Duration) { f.pauses = append(f.pauses, d) },
	}
	return f
}

func order(key string) FulfillRequest {
	return FulfillRequest{Requester: "u1", AccountID: "12345", ZoneID: "6789", PackageKey: key}
}

func TestFulfillSingleItemSettles(t *testing.T) {
	f := newFulfillFixture("100.00", ok("X1"))

	rep := f.uc.Execute(context.Background(), order("86"))

	assert.Equal(t, domain.ReportSettled, rep.Status)
	assert.Empty(t, rep.Code)
	assert.Equal(t, "61.50", rep.Spent.StringFixed(2))
	assert.Equal(t, "100.00", rep.Initial.StringFixed(2))
	assert.Equal(t, "38.50", rep.Final.StringFixed(2))
	assert.Equal(t, "Hero", rep.DisplayName)
	assert.Equal(t, 1, rep.SuccessCount)

	st, _ := f.store.snapshot()
	assert.Equal(t, "38.50", st.Wallet.BR.StringFixed(2))
	require.Len(t, st.Orders, 1)
	rec := st.Orders[0]
	assert.Equal(t, "61.50", rec.Price.StringFixed(2))
	assert.Equal(t, "X1", rec.OrderID)
	assert.Equal(t, "u1", rec.Requester)
	assert.Equal(t, "86", rec.ItemKey)
	assert.Equal(t, domain.StatusSuccess, rec.Status)
	assert.Equal(t, "08:00:05 AM 09.03.2024", rec.DateStr)
	assert.False(t, rec.Approximate)
	assert.Empty(t, f.pauses)

	require.Len(t, f.events.recs, 1)
	assert.Equal(t, "X1", f.events.recs[0].OrderID)
}

func TestFulfillInsufficientFunds(t *testing.T) {
	f := newFulfillFixture("10.00")

	rep := f.uc.Execute(context.Background(), order("86"))

	assert.Equal(t, domain.ReportRejected, rep.Status)
	assert.Equal(t, domain.CodeInsufficientFunds, rep.Code)
	assert.False(t, rep.Retryable)
	assert.Zero(t, f.purchaser.callCount(), "no network calls")
	st, updates := f.store.snapshot()
	assert.Equal(t, "10.00", st.Wallet.BR.StringFixed(2))
	assert.Empty(t, st.Orders)
	assert.Zero(t, updates)
}

func TestFulfillPartialChargesOnlySucceededItems(t *testing.T) {
	f := newFulfillFixture("300.00", ok("X1"), fail(domain.CodePaymentFailed, "saldo insuficiente"))

	rep := f.uc.Execute(context.Background(), order("343"))

	assert.Equal(t, domain.ReportSettled, rep.Status)
	assert.True(t, rep.Partial())
	assert.Equal(t, 1, rep.SuccessCount)
	assert.Equal(t, 1, rep.FailCount)
	assert.Equal(t, domain.CodePaymentFailed, rep.Code)
	assert.Equal(t, "saldo insuficiente", rep.Message)
	assert.Equal(t, "239.00", rep.Required.StringFixed(2))
	assert.Equal(t, "61.50", rep.Spent.StringFixed(2))
	assert.Equal(t, "238.50", rep.Final.StringFixed(2))

	st, _ := f.store.snapshot()
	assert.Equal(t, "238.50", st.Wallet.BR.StringFixed(2))
	require.Len(t, st.Orders, 1)
	assert.Equal(t, "61.50", st.Orders[0].Price.StringFixed(2))
	assert.Len(t, f.pauses, 1, "one pause before the second item")
}

func TestFulfillPartialChargeProperty(t *testing.T) {
	// items cost 10, 20, 30; failing at position k charges the sum of the first k
	want := []string{"", "10.00", "30.00"}
	for k := 1; k < 3; k++ {
		script := make([]func(domain.PurchaseRequest) (domain.PurchaseResult, error), k+1)
		for i := 0; i < k; i++ {
			script[i] = ok("T" + string(rune('0'+i)))
		}
		script[k] = fail(domain.CodeRejected, "sold out")
		f := newFulfillFixture("100.00", script...)

		rep := f.uc.Execute(context.Background(), order("3x"))
		assert.Equal(t, want[k], rep.Spent.StringFixed(2), "k=%d", k)
		assert.Equal(t, k, rep.SuccessCount)
		st, _ := f.store.snapshot()
		assert.Equal(t, dec("100").Sub(dec(want[k])).StringFixed(2), st.Wallet.BR.StringFixed(2))
	}
}

func TestFulfillSessionExpiredRefreshesOnce(t *testing.T) {
	f := newFulfillFixture("100.00", fail(domain.CodeSessionExpired, "redirected to login"))

	rep := f.uc.Execute(context.Background(), order("86"))

	assert.Equal(t, domain.ReportRejected, rep.Status)
	assert.Equal(t, 1, f.session.refreshCount())
	assert.True(t, rep.Retryable)
	assert.Equal(t, domain.CodeSessionRenewed, rep.Code)
	assert.Equal(t, 1, f.purchaser.callCount(), "no automatic replay")
	st, updates := f.store.snapshot()
	assert.Zero(t, updates, "no ledger mutation")
	assert.Equal(t, "100.00", st.Wallet.BR.StringFixed(2))
}

func TestFulfillRefreshFailureStaysExpired(t *testing.T) {
	f := newFulfillFixture("100.00", fail(domain.CodeNoToken, "no token"))
	f.session.refreshErr = errBoom

	rep := f.uc.Execute(context.Background(), order("86"))

	assert.Equal(t, 1, f.session.refreshCount())
	assert.Equal(t, domain.CodeSessionExpired, rep.Code)
	assert.True(t, rep.Retryable)
}

func TestFulfillPartialWithExpiredSessionStillSettles(t *testing.T) {
	f := newFulfillFixture("300.00", ok("X1"), fail(domain.CodeSessionExpired, "login"))

	rep := f.uc.Execute(context.Background(), order("343"))

	assert.Equal(t, domain.ReportSettled, rep.Status)
	assert.Equal(t, domain.CodeSessionRenewed, rep.Code)
	assert.Equal(t, 1, f.session.refreshCount())
	assert.Equal(t, "238.50", rep.Final.StringFixed(2))
}

func TestFulfillTerminalFailuresDoNotRefresh(t *testing.T) {
	for _, code := range []domain.FailureCode{domain.CodeBlocked, domain.CodeInvalidAccount, domain.CodeRejected} {
		f := newFulfillFixture("100.00", fail(code, "x"))
		rep := f.uc.Execute(context.Background(), order("86"))
		assert.Equal(t, code, rep.Code)
		assert.False(t, rep.Retryable)
		assert.Zero(t, f.session.refreshCount())
	}
}

func TestFulfillUnknownPackage(t *testing.T) {
	f := newFulfillFixture("100.00")

	rep := f.uc.Execute(context.Background(), order("nope"))

	assert.Equal(t, domain.CodeNoPackage, rep.Code)
	assert.Zero(t, f.purchaser.callCount())
	_, updates := f.store.snapshot()
	assert.Zero(t, updates)
}

func TestFulfillPassesSeenAndMarksApproximate(t *testing.T) {
	f := newFulfillFixture("100.00", ok("A"), assumed("AUTO_1"), ok("A"))

	rep := f.uc.Execute(context.Background(), order("3x"))

	require.Equal(t, domain.ReportSettled, rep.Status)
	assert.Empty(t, f.purchaser.calls[0].Seen)
	assert.Equal(t, []string{"A"}, f.purchaser.calls[1].Seen)
	assert.Equal(t, []string{"A", "AUTO_1"}, f.purchaser.calls[2].Seen)
	assert.Equal(t, []domain.TransactionRef{{ID: "A"}, {ID: "AUTO_1", Assumed: true}}, rep.Transactions)
	require.NotNil(t, rep.Record)
	assert.True(t, rep.Record.Approximate)
	assert.Equal(t, "A, AUTO_1", rep.Record.OrderID)
	assert.Equal(t, "60.00", rep.Spent.StringFixed(2))
}

func TestFulfillRecoversPanics(t *testing.T) {
	f := newFulfillFixture("100.00", func(domain.PurchaseRequest) (domain.PurchaseResult, error) {
		panic("nil map")
	})

	rep := f.uc.Execute(context.Background(), order("86"))
	assert.Equal(t, domain.CodeSystemError, rep.Code)
	assert.Contains(t, rep.Message, "nil map")

	// the lock was released on the way out
	rep = f.uc.Execute(context.Background(), order("86"))
	assert.Equal(t, domain.ReportSettled, rep.Status)
}

func TestFulfillEventFailureIsNotFatal(t *testing.T) {
	f := newFulfillFixture("100.00", ok("X1"))
	f.events.err = errBoom

	rep := f.uc.Execute(context.Background(), order("86"))
	assert.Equal(t, domain.ReportSettled, rep.Status)
	assert.Empty(t, rep.Code)
}

func TestFulfillWaitsForLockWithContext(t *testing.T) {
	f := newFulfillFixture("100.00")
	require.NoError(t, f.uc.Lock.Acquire(context.Background()))
	defer f.uc.Lock.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rep := f.uc.Execute(ctx, order("86"))

	assert.Equal(t, domain.CodeSystemError, rep.Code)
	assert.Zero(t, f.purchaser.callCount())
}

func TestFulfillCancelBetweenItemsSettlesBoughtPart(t *testing.T) {
	f := newFulfillFixture("300.00", ok("X1"), ok("X2"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.uc.Pause = func(time.Duration) { cancel() }

	rep := f.uc.Execute(ctx, order("343"))

	assert.Equal(t, 1, f.purchaser.callCount(), "second item never submitted")
	assert.Equal(t, domain.ReportSettled, rep.Status)
	assert.Equal(t, domain.CodeSystemError, rep.Code)
	assert.Equal(t, 1, rep.SuccessCount)
	assert.Equal(t, 1, rep.FailCount)
	assert.Equal(t, "61.50", rep.Spent.StringFixed(2))
	assert.Equal(t, "238.50", rep.Final.StringFixed(2))

	st, _ := f.store.snapshot()
	assert.Equal(t, "238.50", st.Wallet.BR.StringFixed(2))
	require.Len(t, st.Orders, 1)
	assert.Equal(t, "X1", st.Orders[0].OrderID)
}

func TestFulfillPauseReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFulfillFixture("300.00", func(req domain.PurchaseRequest) (domain.PurchaseResult, error) {
		cancel()
		return ok("X1")(req)
	}, ok("X2"))
	f.uc.Pause = nil
	f.uc.ItemDelayMin, f.uc.ItemDelayMax = time.Hour, time.Hour

	done := make(chan domain.FulfillmentReport, 1)
	go func() { done <- f.uc.Execute(ctx, order("343")) }()

	select {
	case rep := <-done:
		assert.Equal(t, domain.ReportSettled, rep.Status)
		assert.Equal(t, "61.50", rep.Spent.StringFixed(2))
		assert.Equal(t, 1, f.purchaser.callCount())
	case <-time.After(time.Second):
		t.Fatal("pause ignored cancellation")
	}
}

func TestFulfillSerializesConcurrentOrders(t *testing.T) {
	f := newFulfillFixture("1000.00")
	f.purchaser.delay = 5 * time.Millisecond

	var wg sync.WaitGroup
	reports := make([]domain.FulfillmentReport, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i] = f.uc.Execute(context.Background(), order("3x"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.purchaser.maxActive)
	// each order's three items run back to back
	ev := f.purchaser.events
	require.Len(t, ev, 12)
	for i := 0; i < len(ev); i += 6 {
		assert.Equal(t, []string{"start 3x-a", "end 3x-a", "start 3x-b", "end 3x-b", "start 3x-c", "end 3x-c"}, ev[i:i+6])
	}
	for _, rep := range reports {
		assert.Equal(t, domain.ReportSettled, rep.Status)
	}
	st, _ := f.store.snapshot()
	assert.Equal(t, "880.00", st.Wallet.BR.StringFixed(2))
	assert.False(t, st.Wallet.BR.IsNegative())
}

func TestFulfillConcurrentOrdersNeverOverdraw(t *testing.T) {
	// enough for one order only
	f := newFulfillFixture("70.00")

	var wg sync.WaitGroup
	reports := make([]domain.FulfillmentReport, 3)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i] = f.uc.Execute(context.Background(), order("86"))
		}(i)
	}
	wg.Wait()

	settled := 0
	for _, rep := range reports {
		if rep.Status == domain.ReportSettled {
			settled++
		} else {
			assert.Equal(t, domain.CodeInsufficientFunds, rep.Code)
		}
	}
	assert.Equal(t, 1, settled)
	st, _ := f.store.snapshot()
	assert.Equal(t, "8.50", st.Wallet.BR.StringFixed(2))
}
