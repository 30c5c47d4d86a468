package service

import (
	"context"
	"time"
)

// ConfirmationMessage is what the mail worker needs to tell a guest their
// booking is confirmed and how to open the door.
type ConfirmationMessage struct {
	ReservationID    string    `json:"reservation_id"`
	Email            string    `json:"email"`
	GuestName        string    `json:"guest_name"`
	ConfirmationCode string    `json:"confirmation_code"`
	RoomNumber       string    `json:"room_number"`
	CheckIn          time.Time `json:"check_in"`
	CheckOut         time.Time `json:"check_out"`
	KeyToken         string    `json:"key_token"`
	KeyExpiresAt     time.Time `json:"key_expires_at"`
}

type Notifier interface {
	SendConfirmation(ctx context.Context, msg ConfirmationMessage) error
}

const RoutingKeyReservationConfirmed = "reservation.confirmed"

// EventPublisher is satisfied by rabbitmq.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type brokerNotifier struct {
	publisher EventPublisher
}

// NewBrokerNotifier hands confirmation messages to the mail worker over the
// message broker.
func NewBrokerNotifier(publisher EventPublisher) Notifier {
	return &brokerNotifier{publisher: publisher}
}

func (n *brokerNotifier) SendConfirmation(ctx context.Context, msg ConfirmationMessage) error {
	return n.publisher.Publish(ctx, RoutingKeyReservationConfirmed, msg)
}
