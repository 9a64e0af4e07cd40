package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// KeepAlive — фоновая проверка сессии витрины.
// Тик пропускается, пока идёт заказ: refresh посреди покупки ломает её сессию.
type KeepAlive struct {
	Checker  domain.SessionChecker
	Session  domain.SessionProvider
	Lock     *TxLock
	Cache    domain.BalanceCache
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Run — проверять сессию до отмены ctx. Сбои только пишутся в лог.
func (k *KeepAlive) Run(ctx context.Context) {
	t := time.NewTicker(k.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			k.Tick(ctx)
		}
	}
}

// Tick — одна проверка; возвращает, была ли попытка обновления.
func (k *KeepAlive) Tick(ctx context.Context) (refreshed bool) {
	log := k.Logger
	if log == nil {
		log = slog.Default()
	}
	if k.Lock != nil {
		if !k.Lock.TryAcquire() {
			log.Debug("keep-alive skipped, transaction in flight")
			return false
		}
		defer k.Lock.Release()
	}

	alive, official, err := k.Checker.CheckSession(ctx)
	if err != nil {
		log.Warn("keep-alive check failed", "err", err)
		return false
	}
	if alive {
		if k.Cache != nil {
			k.Cache.Set(official, k.now())
		}
		log.Info("session alive", "official_br", official.BR.StringFixed(2), "official_ph", official.PH.StringFixed(2))
		return false
	}
	log.Warn("session expired, refreshing")
	if err := k.Session.Refresh(ctx); err != nil {
		log.Error("keep-alive refresh failed", "err", err)
	}
	return true
}

func (k *KeepAlive) now() time.Time {
	if k.Now != nil {
		return k.Now()
	}
	return time.Now()
}
