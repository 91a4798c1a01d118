package email

import (
	"context"
	"fmt"

	"github.com/tinydiner/weddingdesk/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	switch event.Type {
	case "hold_created":
		fmt.Printf("send email to %s: %s is held for you until %s\n", event.Email, event.EventDate, event.HeldUntil.Format("Jan 2 15:04"))
	case "deposit_paid":
		fmt.Printf("send email to %s: deposit received, %s is booked\n", event.Email, event.EventDate)
	case "balance_paid":
		fmt.Printf("send email to %s: balance received for %s, see you there\n", event.Email, event.EventDate)
	case "hold_released":
		fmt.Printf("send email to %s: your hold on %s was released\n", event.Email, event.EventDate)
	case "hold_expired":
		fmt.Printf("send email to %s: your hold on %s expired\n", event.Email, event.EventDate)
	default:
		fmt.Printf("send email to %s about %s for %s\n", event.Email, event.Type, event.EventDate)
	}
	return nil
}
