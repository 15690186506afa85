package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SyncPayload is the background sync job: which lead to push and why.
type SyncPayload struct {
	LeadID  string `json:"lead_id"`
	Email   string `json:"email"`
	Trigger string `json:"trigger"` // INTAKE, WEBHOOK, MANUAL
}

type SyncProducerInterface interface {
	PublishLeadSync(ctx context.Context, payload SyncPayload) error
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Conn: conn, Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadSync(ctx context.Context, payload SyncPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sync payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish lead sync: %w", err)
	}

	return nil
}
