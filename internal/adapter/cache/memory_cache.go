package cache

import (
	"sync"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// MemoryBalanceCache — последние балансы, прочитанные с самой витрины.
// Только для справки: учётный баланс ведёт кошелёк.
type MemoryBalanceCache struct {
	mu  sync.RWMutex
	bal domain.Balances
	at  time.Time
	ok  bool
}

func NewMemoryBalanceCache() *MemoryBalanceCache {
	return &MemoryBalanceCache{}
}

func (c *MemoryBalanceCache) Get() (domain.Balances, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bal, c.at, c.ok
}

func (c *MemoryBalanceCache) Set(b domain.Balances, at time.Time) {
	c.mu.Lock()
	c.bal, c.at, c.ok = b, at, true
	c.mu.Unlock()
}

var _ domain.BalanceCache = (*MemoryBalanceCache)(nil)
