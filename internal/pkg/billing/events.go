package billing

import (
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
)

// Event is the normalized form of a billing provider notification. Only
// the two event kinds the reducer acts on carry data; everything else is
// folded into OtherEvent.
type Event interface {
	eventKind() string
}

// CheckoutCompleted signals that a user finished checkout and a new
// subscription exists at the provider.
type CheckoutCompleted struct {
	SubscriptionRef string
	UserID          string
}

// InvoicePaymentSucceeded signals a renewal payment on an existing
// subscription.
type InvoicePaymentSucceeded struct {
	SubscriptionRef string
}

// OtherEvent is any provider event kind the reducer ignores.
type OtherEvent struct {
	Type string
}

func (CheckoutCompleted) eventKind() string       { return "checkout.session.completed" }
func (InvoicePaymentSucceeded) eventKind() string { return "invoice.payment_succeeded" }
func (e OtherEvent) eventKind() string            { return e.Type }

type checkoutSessionPayload struct {
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type invoicePayload struct {
	Subscription string `json:"subscription"`
}

// ParseEvent maps a verified Stripe event to the normalized Event union.
func ParseEvent(event stripe.Event) (Event, error) {
	switch event.Type {
	case "checkout.session.completed":
		var payload checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
			return nil, fmt.Errorf("billing: parse checkout session event: %w", err)
		}
		return CheckoutCompleted{
			SubscriptionRef: payload.Subscription,
			UserID:          payload.Metadata[MetadataUserIDKey],
		}, nil
	case "invoice.payment_succeeded":
		var payload invoicePayload
		if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
			return nil, fmt.Errorf("billing: parse invoice event: %w", err)
		}
		return InvoicePaymentSucceeded{SubscriptionRef: payload.Subscription}, nil
	default:
		return OtherEvent{Type: string(event.Type)}, nil
	}
}
