package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	alive    bool
	official domain.Balances
	err      error
	calls    atomic.Int32
	ticked   chan struct{}
}

func (c *stubChecker) CheckSession(context.Context) (bool, domain.Balances, error) {
	c.calls.Add(1)
	if c.ticked != nil {
		select {
		case c.ticked <- struct{}{}:
		default:
		}
	}
	return c.alive, c.official, c.err
}

type recordingCache struct {
	b  domain.Balances
	at time.Time
	n  int
}

func (c *recordingCache) Get() (domain.Balances, time.Time, bool) {
	return c.b, c.at, c.n > 0
}

func (c *recordingCache) Set(b domain.Balances, at time.Time) {
	c.b, c.at, c.n = b, at, c.n+1
}

func newKeepAlive(checker *stubChecker) (*KeepAlive, *stubSession, *recordingCache) {
	s := &stubSession{}
	c := &recordingCache{}
	return &KeepAlive{
		Checker:  checker,
		Session:  s,
		Lock:     NewTxLock(),
		Cache:    c,
		Interval: time.Millisecond,
		Logger:   discard,
		Now:      func() time.Time { return fixedNow },
	}, s, c
}

func TestKeepAliveTick(t *testing.T) {
	ctx := context.Background()

	t.Run("alive caches official balance", func(t *testing.T) {
		k, s, c := newKeepAlive(&stubChecker{alive: true, official: domain.Balances{BR: dec("12.5"), PH: dec("3")}})
		assert.False(t, k.Tick(ctx))
		assert.Zero(t, s.refreshCount())
		assert.Equal(t, 1, c.n)
		assert.Equal(t, fixedNow, c.at)
		assert.Equal(t, "12.50", c.b.BR.StringFixed(2))
	})
	t.Run("expired refreshes once", func(t *testing.T) {
		k, s, c := newKeepAlive(&stubChecker{})
		assert.True(t, k.Tick(ctx))
		assert.Equal(t, 1, s.refreshCount())
		assert.Zero(t, c.n)
	})
	t.Run("refresh failure is swallowed", func(t *testing.T) {
		k, s, _ := newKeepAlive(&stubChecker{})
		s.refreshErr = errBoom
		assert.True(t, k.Tick(ctx))
	})
	t.Run("check error does nothing", func(t *testing.T) {
		k, s, c := newKeepAlive(&stubChecker{err: errBoom})
		assert.False(t, k.Tick(ctx))
		assert.Zero(t, s.refreshCount())
		assert.Zero(t, c.n)
	})
	t.Run("skipped while a transaction holds the slot", func(t *testing.T) {
		checker := &stubChecker{}
		k, s, _ := newKeepAlive(checker)
		require.NoError(t, k.Lock.Acquire(ctx))
		assert.False(t, k.Tick(ctx))
		assert.Zero(t, checker.calls.Load())
		assert.Zero(t, s.refreshCount())

		k.Lock.Release()
		assert.True(t, k.Tick(ctx))
		assert.True(t, k.Lock.TryAcquire(), "tick releases the slot")
	})
}

func TestKeepAliveRunStopsWithContext(t *testing.T) {
	checker := &stubChecker{alive: true, ticked: make(chan struct{}, 1)}
	k, _, _ := newKeepAlive(checker)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		k.Run(ctx)
		close(done)
	}()

	select {
	case <-checker.ticked:
	case <-time.After(time.Second):
		t.Fatal("no tick within a second")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
