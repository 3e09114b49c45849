package notifier

//go:generate go run go.uber.org/mock/mockgen -source=./notifier.go -destination=./mocks/notifier_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"kbox/config"
	"kbox/infras/kafka"
	"kbox/shared/timezone"
)

// Kind identifies the booking lifecycle event being announced.
type Kind string

const (
	KindCreated   Kind = "booking.created"
	KindUpdated   Kind = "booking.updated"
	KindPaid      Kind = "booking.paid"
	KindCancelled Kind = "booking.cancelled"
)

// Snapshot is the booking state carried on a notification. It is a flat
// copy so consumers never depend on internal models.
type Snapshot struct {
	BookingID    string `json:"booking_id"`
	Code         string `json:"code"`
	RoomNumber   string `json:"room_number"`
	BookingDate  string `json:"booking_date"`
	TimeSlot     string `json:"time_slot"`
	Status       string `json:"status"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	TotalPrice   int64  `json:"total_price"`
}

// Event is the message written to the notification topic.
type Event struct {
	Kind       Kind     `json:"kind"`
	OccurredAt string   `json:"occurred_at"`
	Booking    Snapshot `json:"booking"`
}

// Notifier fans booking lifecycle events out to interested consumers.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, booking Snapshot) error
}

type kafkaNotifier struct {
	client kafka.Client
	topic  string
}

func NewKafka(cfg *config.Config, client kafka.Client) Notifier {
	return &kafkaNotifier{
		client: client,
		topic:  cfg.Kafka.NotificationTopic,
	}
}

func (n *kafkaNotifier) Notify(ctx context.Context, kind Kind, booking Snapshot) error {
	event := Event{
		Kind:       kind,
		OccurredAt: timezone.Now().Format("2006-01-02T15:04:05Z07:00"),
		Booking:    booking,
	}

	err := n.client.SendMessages(ctx, n.topic, kafka.Message{
		Key:   booking.BookingID,
		Value: event,
	})
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Str("bookingID", booking.BookingID).Msg("Failed to publish booking notification")

		return fmt.Errorf("failed to publish booking notification: %w", err)
	}

	return nil
}
