package natsstan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
	stan "github.com/nats-io/stan.go"
)

// Subscriber — доставка сообщений одного subject обработчику с ручным ack.
// Сервер получает через него cookie от внешнего воркера входа.
type Subscriber struct {
	Conn    stan.Conn
	Subject string
	Queue   string
	Durable string
	Logger  *slog.Logger
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	sub, err := s.Conn.QueueSubscribe(s.Subject, s.Queue, func(m *stan.Msg) {
		s.process(m.Data, m.Sequence, m.Ack, handler)
	}, stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(10*time.Second), stan.StartWithLastReceived())
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.Subject, err)
	}
	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()
	return nil
}

// process — обработать одну доставку; ack только при успехе.
func (s *Subscriber) process(data []byte, seq uint64, ack func() error, handler func(ctx context.Context, raw []byte) error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := handler(hCtx, data); err != nil {
		// не подтверждаем, даём сообщению переотправиться
		logger.Error("handler error", "subject", s.Subject, "seq", seq, "err", err)
		return
	}
	if err := ack(); err != nil {
		logger.Warn("ack failed", "subject", s.Subject, "seq", seq, "err", err)
	}
}

var _ domain.MessageSubscriber = (*Subscriber)(nil)

// Connect — открыть streaming-соединение; по умолчанию clientID уникален.
func Connect(clusterID, clientID, natsURL string) (stan.Conn, error) {
	if clientID == "" {
		clientID = fmt.Sprintf("topup-svc-%d", time.Now().UnixNano())
	}
	return stan.Connect(clusterID, clientID, stan.NatsURL(natsURL))
}
