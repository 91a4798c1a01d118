package payment

import (
	"context"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/tinydiner/weddingdesk/internal/domain"
)

// OmiseGateway charges card tokens through Omise. Amounts are passed in
// minor currency units end to end, so no conversion happens at this
// boundary. The idempotency key travels in the charge metadata; callers
// must reuse a key only when retrying an established failure, never after
// a timeout with an unknown outcome.
type OmiseGateway struct {
	client *omise.Client
}

func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	return &OmiseGateway{client: client}, nil
}

func (g *OmiseGateway) Charge(ctx context.Context, amountCents int64, currency, cardToken, idempotencyKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	charge := &omise.Charge{}
	err := g.client.Do(charge, &operations.CreateCharge{
		Amount:   amountCents,
		Currency: currency,
		Card:     cardToken,
		Metadata: map[string]interface{}{"idempotency_key": idempotencyKey},
	})
	if err != nil {
		return "", &domain.PaymentError{Reason: err.Error()}
	}

	if string(charge.Status) != "successful" {
		reason := "charge " + string(charge.Status)
		if charge.FailureMessage != nil {
			reason = *charge.FailureMessage
		}
		return "", &domain.PaymentError{Reason: reason}
	}

	return charge.ID, nil
}
