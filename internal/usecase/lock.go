package usecase

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// TxLock — единственный слот транзакции витрины.
// Держится на всём протяжении заказа: проверка баланса, все сетевые шаги
// каждой позиции и запись в журнал. Одна сессия витрины, один поток покупок.
type TxLock struct {
	sem *semaphore.Weighted
}

func NewTxLock() *TxLock {
	return &TxLock{sem: semaphore.NewWeighted(1)}
}

// Acquire — ждать освобождения слота или отмены ctx.
func (l *TxLock) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// TryAcquire — занять слот, только если он свободен.
func (l *TxLock) TryAcquire() bool {
	return l.sem.TryAcquire(1)
}

func (l *TxLock) Release() {
	l.sem.Release(1)
}
