package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hki-dev/hki-crm/internal/usecase"
)

type Worker struct {
	Channel *amqp.Channel
	Sync    *usecase.SyncLeadUseCase
}

func NewWorker(ch *amqp.Channel, sync *usecase.SyncLeadUseCase) *Worker {
	return &Worker{Channel: ch, Sync: sync}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("❌ [Worker] consumer registration failed: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload SyncPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [Worker] malformed message: %s", err)
				// Poison message, reject without requeue so the queue keeps moving.
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [Worker] syncing lead %s (%s, trigger=%s)", payload.LeadID, payload.Email, payload.Trigger)

			out, err := w.Sync.Execute(context.Background(), payload.LeadID)
			if err != nil {
				log.Printf("❌ [Worker] sync failed for %s: %s", payload.LeadID, err)
				// Goes to the DLQ via the dead-letter exchange.
				d.Nack(false, false)
				continue
			}

			log.Printf("✅ [Worker] lead %s → contact #%d (enrolled=%t)", payload.LeadID, out.ContactID, out.Enrolled)
			d.Ack(false)
		}
	}()

	log.Printf(" [*] Worker waiting on queue '%s'", queueName)
	<-forever
}
