package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/globaltierra/crm-api/internal/entity"
)

// Mailer is the outbound-notification contract the worker drives.
type Mailer interface {
	SendLeadNotification(name, email, phone, message string) error
	SendPaymentConfirmation(to, name string, amountCents int64, currency string) error
	NotifyAddress() string
}

type MessageRecorder interface {
	Record(ctx context.Context, msg *entity.MessageEvent) error
}

type Worker struct {
	Channel  *amqp.Channel
	Mailer   Mailer
	Messages MessageRecorder
}

func NewWorker(ch *amqp.Channel, mailer Mailer, messages MessageRecorder) *Worker {
	return &Worker{
		Channel:  ch,
		Mailer:   mailer,
		Messages: messages,
	}
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
		log.Fatalf("failed to register notification consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload NotificationPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("[worker] malformed notification, dropping to DLQ: %s", err)
				d.Nack(false, false)
				continue
			}

			if err := w.processMessage(context.Background(), payload); err != nil {
				log.Printf("[worker] notification %s failed: %s", payload.Kind, err)
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Notification worker waiting on queue %q", queueName)
	<-forever
}

func (w *Worker) processMessage(ctx context.Context, payload NotificationPayload) error {
	switch payload.Kind {
	case KindLeadCaptured:
		if err := w.Mailer.SendLeadNotification(payload.Name, payload.Email, payload.Phone, payload.Message); err != nil {
			return err
		}
		return w.record(ctx, payload.LeadID, entity.MessageLeadCaptured, w.Mailer.NotifyAddress())

	case KindPaymentApplied:
		if err := w.Mailer.SendPaymentConfirmation(payload.Email, payload.Name, payload.AmountCents, payload.Currency); err != nil {
			return err
		}
		return w.record(ctx, payload.LeadID, entity.MessagePaymentApplied, payload.Email)

	default:
		// Unknown kind: ack so the queue keeps moving.
		log.Printf("[worker] unknown notification kind %q, skipping", payload.Kind)
		return nil
	}
}

func (w *Worker) record(ctx context.Context, leadID string, kind entity.MessageKind, recipient string) error {
	msg := entity.NewMessageEvent(leadID, kind, recipient)
	if err := w.Messages.Record(ctx, msg); err != nil {
		// The mail went out; failing the delivery now would resend it.
		log.Printf("[worker] sent %s but could not record message event: %v", kind, err)
	}
	return nil
}
