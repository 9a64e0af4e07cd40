package domain

import "github.com/shopspring/decimal"

// TransactionRef — ссылка на внешнюю транзакцию.
// Assumed=true: оплата прошла, но идентификатор витрина не вернула и он синтезирован локально.
type TransactionRef struct {
	ID      string `json:"id"`
	Assumed bool   `json:"assumed,omitempty"`
}

// PurchaseRequest — отправка одной позиции.
type PurchaseRequest struct {
	Game      Game
	Region    Region
	AccountID string
	ZoneID    string
	ProductID string
	// Seen — id транзакций, уже принятых в текущем многопозиционном заказе.
	Seen []string
}

// PurchaseResult — успешный результат одной позиции.
type PurchaseResult struct {
	DisplayName string         `json:"display_name"`
	Transaction TransactionRef `json:"transaction"`
}

type ReportStatus string

const (
	ReportSettled  ReportStatus = "settled"
	ReportRejected ReportStatus = "rejected"
)

// FulfillmentReport — итог одного вызова Fulfill.
type FulfillmentReport struct {
	Requester    string           `json:"requester"`
	AccountID    string           `json:"account_id"`
	ZoneID       string           `json:"zone_id"`
	PackageKey   string           `json:"package"`
	Game         Game             `json:"game,omitempty"`
	Region       Region           `json:"region,omitempty"`
	Status       ReportStatus     `json:"status"`
	Code         FailureCode      `json:"code,omitempty"`
	Message      string           `json:"message,omitempty"`
	Retryable    bool             `json:"retryable"`
	DisplayName  string           `json:"display_name,omitempty"`
	Transactions []TransactionRef `json:"transactions,omitempty"`
	Required     decimal.Decimal  `json:"required"`
	Spent        decimal.Decimal  `json:"spent"`
	Initial      decimal.Decimal  `json:"initial_balance"`
	Final        decimal.Decimal  `json:"final_balance"`
	SuccessCount int              `json:"success_count"`
	FailCount    int              `json:"fail_count"`
	Record       *OrderRecord     `json:"record,omitempty"`
}

// Partial — заказ списан, но часть позиций не прошла.
func (r FulfillmentReport) Partial() bool {
	return r.Status == ReportSettled && r.FailCount > 0
}

// RedeemOutcome — результат активации кода на витрине.
// Added может быть нулём, если баланс не успел обновиться.
type RedeemOutcome struct {
	Region Region          `json:"region"`
	Added  decimal.Decimal `json:"added"`
}

// RedeemReport — итог RedeemCode.
type RedeemReport struct {
	Requester string          `json:"requester"`
	Code      string          `json:"code"`
	Region    Region          `json:"region,omitempty"`
	Credited  decimal.Decimal `json:"credited"`
	Unknown   bool            `json:"amount_unknown"`
	Balance   decimal.Decimal `json:"balance"`
	Failure   FailureCode     `json:"failure,omitempty"`
	Message   string          `json:"message,omitempty"`
}
