package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v82"
)

func TestParseEventCheckoutCompleted(t *testing.T) {
	event := stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{
			Raw: json.RawMessage(`{"id":"cs_test_1","subscription":"sub_123","metadata":{"user_id":"42"}}`),
		},
	}

	parsed, err := ParseEvent(event)
	assert.NoError(t, err)

	checkout, ok := parsed.(CheckoutCompleted)
	if !ok {
		t.Fatalf("expected CheckoutCompleted, got %T", parsed)
	}
	assert.Equal(t, "sub_123", checkout.SubscriptionRef)
	assert.Equal(t, "42", checkout.UserID)
}

func TestParseEventCheckoutCompletedWithoutMetadata(t *testing.T) {
	event := stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{
			Raw: json.RawMessage(`{"id":"cs_test_1","subscription":"sub_123"}`),
		},
	}

	parsed, err := ParseEvent(event)
	assert.NoError(t, err)

	checkout, ok := parsed.(CheckoutCompleted)
	if !ok {
		t.Fatalf("expected CheckoutCompleted, got %T", parsed)
	}
	assert.Empty(t, checkout.UserID)
}

func TestParseEventInvoicePaymentSucceeded(t *testing.T) {
	event := stripe.Event{
		Type: "invoice.payment_succeeded",
		Data: &stripe.EventData{
			Raw: json.RawMessage(`{"id":"in_test_1","subscription":"sub_123"}`),
		},
	}

	parsed, err := ParseEvent(event)
	assert.NoError(t, err)

	invoice, ok := parsed.(InvoicePaymentSucceeded)
	if !ok {
		t.Fatalf("expected InvoicePaymentSucceeded, got %T", parsed)
	}
	assert.Equal(t, "sub_123", invoice.SubscriptionRef)
}

func TestParseEventOther(t *testing.T) {
	event := stripe.Event{
		Type: "customer.subscription.deleted",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}

	parsed, err := ParseEvent(event)
	assert.NoError(t, err)

	other, ok := parsed.(OtherEvent)
	if !ok {
		t.Fatalf("expected OtherEvent, got %T", parsed)
	}
	assert.Equal(t, "customer.subscription.deleted", other.Type)
}

func TestParseEventMalformedPayload(t *testing.T) {
	event := stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: json.RawMessage(`not json`)},
	}

	_, err := ParseEvent(event)
	assert.Error(t, err)
}
