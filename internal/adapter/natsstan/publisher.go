package natsstan

import (
	"context"
	"encoding/json"

	"github.com/example/topup-wallet-engine/internal/domain"
	stan "github.com/nats-io/stan.go"
)

// Publisher — лента зафиксированных заказов.
type Publisher struct {
	Conn    stan.Conn
	Subject string
}

func (p *Publisher) PublishOrder(ctx context.Context, rec domain.OrderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.Conn.Publish(p.Subject, b)
}

var _ domain.EventPublisher = (*Publisher)(nil)
