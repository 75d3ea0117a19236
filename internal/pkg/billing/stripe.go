package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	bpsession "github.com/stripe/stripe-go/v82/billingportal/session"
	csession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/inceptionai/inception/internal/pkg/env"
)

// MetadataUserIDKey is the checkout session metadata key carrying the
// internal user id through the billing provider and back on the webhook.
const MetadataUserIDKey = "user_id"

// Pro plan line item presented on the checkout page.
const (
	proPlanName        = "Inception AI Pro"
	proPlanDescription = "Unlimited AI generations"
	proPlanAmountCents = 2000
)

// Setup configures the Stripe SDK with the API key from the environment.
// Safe to call multiple times.
func Setup() {
	stripe.Key = strings.TrimSpace(env.GetEnv("STRIPE_API_KEY", ""))
}

// ProviderSubscription is the provider-agnostic slice of a subscription
// the reducer needs: ids, the first line item's price and the period end
// in provider epoch seconds.
type ProviderSubscription struct {
	ID               string
	CustomerID       string
	PriceID          string
	CurrentPeriodEnd int64
}

// SubscriptionFetcher retrieves the current subscription state from the
// billing provider by its reference.
type SubscriptionFetcher interface {
	FetchSubscription(ctx context.Context, subscriptionRef string) (*ProviderSubscription, error)
}

// stripeFetcher implements SubscriptionFetcher against the Stripe API.
type stripeFetcher struct{}

// NewStripeFetcher creates a SubscriptionFetcher backed by the Stripe API.
func NewStripeFetcher() SubscriptionFetcher {
	return stripeFetcher{}
}

func (stripeFetcher) FetchSubscription(ctx context.Context, subscriptionRef string) (*ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(subscriptionRef, params)
	if err != nil {
		return nil, fmt.Errorf("billing: fetch stripe subscription %s: %w", subscriptionRef, err)
	}

	out := &ProviderSubscription{ID: sub.ID}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
		out.CurrentPeriodEnd = item.CurrentPeriodEnd
	}
	return out, nil
}

// VerifyWebhook checks the Stripe signature on an inbound webhook payload
// and returns the verified event. The secret comes from the environment.
func VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	secret := strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
	event, err := webhook.ConstructEvent(payload, signatureHeader, secret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("billing: webhook signature verification failed: %w", err)
	}
	return event, nil
}

// CreateCheckoutSession starts a Stripe checkout for the pro plan and
// returns the hosted page URL. The user id travels in session metadata so
// the completion webhook can attribute the subscription.
func CreateCheckoutSession(ctx context.Context, userID uint, email, returnURL string) (string, error) {
	if userID == 0 {
		return "", errors.New("billing: user id is required for checkout")
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL:               stripe.String(returnURL),
		CancelURL:                stripe.String(returnURL),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		BillingAddressCollection: stripe.String("auto"),
		CustomerEmail:            stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(proPlanName),
						Description: stripe.String(proPlanDescription),
					},
					UnitAmount: stripe.Int64(proPlanAmountCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String("month"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserIDKey, strconv.FormatUint(uint64(userID), 10))

	sess, err := csession.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession opens the Stripe billing portal for an existing
// customer and returns its URL.
func CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", errors.New("billing: customer id is required for the billing portal")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := bpsession.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create portal session: %w", err)
	}
	return sess.URL, nil
}
