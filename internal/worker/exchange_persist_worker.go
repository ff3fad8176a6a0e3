package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"careerqa/internal/model"
	"careerqa/internal/platform/rabbitmq"
)

// ExchangeStore is the persistence side of the journal.
type ExchangeStore interface {
	Create(exchange *model.Exchange) error
}

// ExchangePersistWorker consumes journaled exchanges from RabbitMQ and
// writes them to MySQL.
type ExchangePersistWorker struct {
	conn      *amqp.Connection
	store     ExchangeStore
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExchangePersistWorker(conn *amqp.Connection, store ExchangeStore, queueName string, logger *zap.Logger) *ExchangePersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExchangePersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger.With(zap.String("worker", "exchange_persist"), zap.String("queue", queueName)),
	}
}

func (w *ExchangePersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(d.Body); err != nil {
					w.logger.Error("persist exchange failed", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.logger.Info("worker started")
	return nil
}

func (w *ExchangePersistWorker) handle(body []byte) error {
	var exchange model.Exchange
	if err := json.Unmarshal(body, &exchange); err != nil {
		return fmt.Errorf("decode exchange failed: %w", err)
	}
	if exchange.SessionID == "" {
		return fmt.Errorf("exchange without session id")
	}
	exchange.ID = 0
	return w.store.Create(&exchange)
}

func (w *ExchangePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
