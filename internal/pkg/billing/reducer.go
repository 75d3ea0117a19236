package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/inceptionai/inception/app/models"
	"github.com/inceptionai/inception/app/repository"
)

// ValidationError marks a webhook payload the sender got wrong, as
// opposed to a downstream failure. Handlers map it to a 400 response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Reducer applies normalized billing events to the local subscription
// records. It does not retry and does not swallow errors; the provider's
// redelivery is the recovery mechanism.
type Reducer struct {
	fetcher SubscriptionFetcher
	subs    repository.SubscriptionRepository
}

// NewReducer wires a reducer from a provider fetcher and the
// subscription repository.
func NewReducer(fetcher SubscriptionFetcher, subs repository.SubscriptionRepository) *Reducer {
	return &Reducer{fetcher: fetcher, subs: subs}
}

// Apply processes one event. Unknown event kinds are a no-op.
func (r *Reducer) Apply(ctx context.Context, event Event) error {
	switch e := event.(type) {
	case CheckoutCompleted:
		return r.applyCheckoutCompleted(ctx, e)
	case InvoicePaymentSucceeded:
		return r.applyInvoicePaymentSucceeded(ctx, e)
	default:
		return nil
	}
}

func (r *Reducer) applyCheckoutCompleted(ctx context.Context, e CheckoutCompleted) error {
	if e.UserID == "" {
		return &ValidationError{Msg: "User id is required"}
	}
	userID, err := strconv.ParseUint(e.UserID, 10, 64)
	if err != nil || userID == 0 {
		return &ValidationError{Msg: "User id is required"}
	}
	if e.SubscriptionRef == "" {
		return &ValidationError{Msg: "Subscription reference is required"}
	}

	sub, err := r.fetcher.FetchSubscription(ctx, e.SubscriptionRef)
	if err != nil {
		return err
	}

	record := &models.UserSubscription{
		UserID:               uint(userID),
		StripeCustomerID:     sub.CustomerID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        sub.PriceID,
	}
	if sub.CurrentPeriodEnd != 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		record.StripeCurrentPeriodEnd = &end
	}
	if err := r.subs.Create(record); err != nil {
		return fmt.Errorf("billing: create subscription record: %w", err)
	}
	return nil
}

func (r *Reducer) applyInvoicePaymentSucceeded(ctx context.Context, e InvoicePaymentSucceeded) error {
	if e.SubscriptionRef == "" {
		return &ValidationError{Msg: "Subscription reference is required"}
	}

	sub, err := r.fetcher.FetchSubscription(ctx, e.SubscriptionRef)
	if err != nil {
		return err
	}

	update := &models.UserSubscription{StripePriceID: sub.PriceID}
	if sub.CurrentPeriodEnd != 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		update.StripeCurrentPeriodEnd = &t
	}
	if err := r.subs.UpdateBySubscriptionID(sub.ID, update); err != nil {
		return fmt.Errorf("billing: update subscription record: %w", err)
	}
	return nil
}
