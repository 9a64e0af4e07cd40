package domain

import (
	"context"
	"time"
)

// StateStore — порт персистентности общего состояния.
// Каждый вызов заново читает хранилище; Update сохраняет результат fn целиком,
// если fn вернула nil.
type StateStore interface {
	View(ctx context.Context, fn func(State) error) error
	Update(ctx context.Context, fn func(*State) error) error
}

// SessionProvider — порт единственной сессии витрины.
type SessionProvider interface {
	Session(ctx context.Context) (Credential, error)
	// Refresh выполняет внеполосный вход и сохраняет новый credential; повторов нет.
	Refresh(ctx context.Context) error
}

// Reauthenticator — внешняя браузерная автоматизация входа.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context) (Credential, error)
}

// Purchaser — шесть шагов покупки одной позиции.
type Purchaser interface {
	Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error)
}

// AccountVerifier — порт получения игрового имени аккаунта.
type AccountVerifier interface {
	LookupAccount(ctx context.Context, game Game, region Region, accountID, zoneID string) (string, error)
}

// CodeRedeemer — порт активации предоплаченного кода в регионе.
type CodeRedeemer interface {
	Redeem(ctx context.Context, region Region, code string) (RedeemOutcome, error)
}

// BalanceProber — порт чтения балансов, которые показывает витрина. Сбой разбора даёт нули.
type BalanceProber interface {
	ProbeBalance(ctx context.Context) (Balances, error)
}

// SessionChecker — дешёвое чтение для keep-alive: жива ли сессия, и заодно балансы.
type SessionChecker interface {
	CheckSession(ctx context.Context) (alive bool, official Balances, err error)
}

// BalanceCache — кэш последнего «официального» баланса (только для наблюдения).
type BalanceCache interface {
	Get() (Balances, time.Time, bool)
	Set(b Balances, at time.Time)
}

// EventPublisher публикует зафиксированные заказы во внешнюю ленту.
type EventPublisher interface {
	PublishOrder(ctx context.Context, rec OrderRecord) error
}

// MessageSubscriber — порт подписчика на входящие сообщения.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}

// Общие доменные ошибки
var (
	ErrNotFound          = notFoundError("not found")
	ErrValidation        = validationError("invalid data")
	ErrInsufficientFunds = ledgerError("insufficient funds")
	ErrOwnerImmutable    = ledgerError("owner cannot be removed")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type ledgerError string

func (e ledgerError) Error() string { return string(e) }
