package usecase

import (
	"context"
	"fmt"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Ledger — общий кошелёк и журнал заказов.
// Каждая операция — полный цикл чтение/изменение/запись в StateStore.
// Ledger сам не сериализует вызывающих: заказы идут под TxLock.
type Ledger struct {
	Store      domain.StateStore
	HistoryCap int
}

func NewLedger(store domain.StateStore) *Ledger {
	return &Ledger{Store: store, HistoryCap: domain.HistoryCap}
}

func (l *Ledger) Balance(ctx context.Context) (domain.Balances, error) {
	var b domain.Balances
	err := l.Store.View(ctx, func(st domain.State) error {
		b = st.Wallet
		return nil
	})
	return b, err
}

func (l *Ledger) Credit(ctx context.Context, r domain.Region, amount decimal.Decimal) (domain.Balances, error) {
	return l.mutate(ctx, func(st *domain.State) error { return st.Credit(r, amount) })
}

func (l *Ledger) Debit(ctx context.Context, r domain.Region, amount decimal.Decimal) (domain.Balances, error) {
	return l.mutate(ctx, func(st *domain.State) error { return st.Debit(r, amount) })
}

func (l *Ledger) mutate(ctx context.Context, fn func(*domain.State) error) (domain.Balances, error) {
	var b domain.Balances
	err := l.Store.Update(ctx, func(st *domain.State) error {
		if err := fn(st); err != nil {
			return err
		}
		b = st.Wallet
		return nil
	})
	return b, err
}

func (l *Ledger) AppendHistory(ctx context.Context, rec domain.OrderRecord) error {
	return l.Store.Update(ctx, func(st *domain.State) error {
		st.AppendOrder(rec, l.HistoryCap)
		return nil
	})
}

func (l *Ledger) QueryHistory(ctx context.Context, requester string, limit int) ([]domain.OrderRecord, error) {
	var out []domain.OrderRecord
	err := l.Store.View(ctx, func(st domain.State) error {
		out = st.History(requester, limit)
		return nil
	})
	return out, err
}

func (l *Ledger) PurgeHistory(ctx context.Context, requester string) (int, error) {
	var n int
	err := l.Store.Update(ctx, func(st *domain.State) error {
		n = st.PurgeHistory(requester)
		return nil
	})
	return n, err
}

// Settle — списать amount и добавить rec одним обновлением хранилища. Если
// списание увело бы кошелёк в минус, запись всё равно сохраняется со статусом
// unsettled, а ошибка оборачивает ErrInsufficientFunds.
func (l *Ledger) Settle(ctx context.Context, r domain.Region, amount decimal.Decimal, rec domain.OrderRecord) (domain.Balances, domain.OrderRecord, error) {
	var (
		b        domain.Balances
		debitErr error
	)
	err := l.Store.Update(ctx, func(st *domain.State) error {
		if debitErr = st.Debit(r, amount); debitErr != nil {
			rec.Status = domain.StatusUnsettled
		}
		st.AppendOrder(rec, l.HistoryCap)
		b = st.Wallet
		return nil
	})
	if err != nil {
		return domain.Balances{}, rec, fmt.Errorf("settle: %w", err)
	}
	if debitErr != nil {
		return b, rec, fmt.Errorf("settle %s %s: %w", amount.StringFixed(2), r, debitErr)
	}
	return b, rec, nil
}
