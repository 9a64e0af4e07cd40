package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HistoryCap — сколько последних заказов хранится на одного заказчика.
const HistoryCap = 200

const (
	StatusSuccess   = "success"
	StatusUnsettled = "unsettled"
)

// OrderRecord — неизменяемая запись о завершённом заказе пакета.
// JSON-теги совпадают с форматом файла состояния, который уже лежит у операторов.
type OrderRecord struct {
	Requester   string          `json:"tg_id"`
	AccountID   string          `json:"game_id"`
	ZoneID      string          `json:"zone_id"`
	ItemKey     string          `json:"item_name"`
	Game        Game            `json:"game,omitempty"`
	Region      Region          `json:"region,omitempty"`
	Price       decimal.Decimal `json:"price"`
	OrderID     string          `json:"order_id"`
	Approximate bool            `json:"approximate,omitempty"`
	Status      string          `json:"status"`
	DateStr     string          `json:"date_str"`
	Timestamp   float64         `json:"timestamp"`
}

// MarshalJSON — price пишется числом, как остальные суммы файла состояния.
func (o OrderRecord) MarshalJSON() ([]byte, error) {
	type plain OrderRecord
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(o), Amount(o.Price)})
}

// Time — timestamp записи как time.Time.
func (o OrderRecord) Time() time.Time {
	sec := int64(o.Timestamp)
	nsec := int64((o.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// TransactionIDs — разбить склеенное поле order_id.
func (o OrderRecord) TransactionIDs() []string {
	if o.OrderID == "" {
		return nil
	}
	parts := strings.Split(o.OrderID, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewOrderRecord — проставить в записи время now; date_str пишется в зоне loc.
func NewOrderRecord(now time.Time, loc *time.Location, rec OrderRecord) OrderRecord {
	if loc == nil {
		loc = time.UTC
	}
	rec.Price = Round2(rec.Price)
	rec.DateStr = now.In(loc).Format("03:04:05 PM 02.01.2006")
	rec.Timestamp = float64(now.UnixNano()) / 1e9
	if rec.Status == "" {
		rec.Status = StatusSuccess
	}
	return rec
}

// JoinTransactionIDs — склеить refs так, как хранится order_id.
func JoinTransactionIDs(refs []TransactionRef) string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return strings.Join(ids, ", ")
}
