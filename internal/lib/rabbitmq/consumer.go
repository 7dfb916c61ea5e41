package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/dvs/internal/lib/sl"
)

// Acknowledger подтверждает или возвращает доставку.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// ConsumerMessage подписывается на очередь и обрабатывает доставки по одной,
// пока не отменён ctx или не закрыт канал. Успешная обработка подтверждается
// ack, ошибка возвращает сообщение в очередь.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func(context.Context, []byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					log.Info("delivery channel closed", slog.String("queue", queueName))
					return
				}
				HandleDelivery(ctx, log, d, d.Body, handler)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// HandleDelivery вызывает handler и подтверждает или возвращает доставку.
func HandleDelivery(ctx context.Context, log *slog.Logger, d Acknowledger, body []byte, handler func(context.Context, []byte) error) {
	if err := handler(ctx, body); err != nil {
		log.Error("failed to handle message, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
