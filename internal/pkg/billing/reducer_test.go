package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inceptionai/inception/app/models"
)

type fakeFetcher struct {
	sub *ProviderSubscription
	err error

	calls []string
}

func (f *fakeFetcher) FetchSubscription(_ context.Context, ref string) (*ProviderSubscription, error) {
	f.calls = append(f.calls, ref)
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

type fakeSubRepo struct {
	created []*models.UserSubscription
	updated map[string]*models.UserSubscription

	createErr error
	updateErr error
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{updated: make(map[string]*models.UserSubscription)}
}

func (r *fakeSubRepo) GetByUserID(userID uint) (*models.UserSubscription, error) {
	for _, sub := range r.created {
		if sub.UserID == userID {
			return sub, nil
		}
	}
	return nil, nil
}

func (r *fakeSubRepo) Create(sub *models.UserSubscription) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, sub)
	return nil
}

func (r *fakeSubRepo) UpdateBySubscriptionID(id string, sub *models.UserSubscription) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated[id] = sub
	return nil
}

func TestApplyCheckoutCompleted(t *testing.T) {
	fetcher := &fakeFetcher{sub: &ProviderSubscription{
		ID:               "sub_123",
		CustomerID:       "cus_456",
		PriceID:          "price_pro",
		CurrentPeriodEnd: 1735689600,
	}}
	repo := newFakeSubRepo()
	reducer := NewReducer(fetcher, repo)

	err := reducer.Apply(context.Background(), CheckoutCompleted{
		SubscriptionRef: "sub_123",
		UserID:          "42",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"sub_123"}, fetcher.calls)

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 created record, got %d", len(repo.created))
	}
	record := repo.created[0]
	assert.Equal(t, uint(42), record.UserID)
	assert.Equal(t, "cus_456", record.StripeCustomerID)
	assert.Equal(t, "sub_123", record.StripeSubscriptionID)
	assert.Equal(t, "price_pro", record.StripePriceID)
	if record.StripeCurrentPeriodEnd == nil {
		t.Fatal("expected period end to be set")
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, record.StripeCurrentPeriodEnd.Equal(want),
		"period end = %v, want %v", record.StripeCurrentPeriodEnd, want)
}

func TestApplyCheckoutCompletedMissingUserID(t *testing.T) {
	tests := []struct {
		name   string
		userID string
	}{
		{"empty", ""},
		{"not a number", "abc"},
		{"zero", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{sub: &ProviderSubscription{ID: "sub_123"}}
			repo := newFakeSubRepo()
			reducer := NewReducer(fetcher, repo)

			err := reducer.Apply(context.Background(), CheckoutCompleted{
				SubscriptionRef: "sub_123",
				UserID:          tt.userID,
			})

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			assert.Empty(t, fetcher.calls, "provider must not be called")
			assert.Empty(t, repo.created, "no record must be created")
		})
	}
}

func TestApplyInvoicePaymentSucceeded(t *testing.T) {
	fetcher := &fakeFetcher{sub: &ProviderSubscription{
		ID:               "sub_123",
		CustomerID:       "cus_456",
		PriceID:          "price_pro_v2",
		CurrentPeriodEnd: 1738368000,
	}}
	repo := newFakeSubRepo()
	reducer := NewReducer(fetcher, repo)

	err := reducer.Apply(context.Background(), InvoicePaymentSucceeded{SubscriptionRef: "sub_123"})
	assert.NoError(t, err)

	update, ok := repo.updated["sub_123"]
	if !ok {
		t.Fatal("expected an update for sub_123")
	}
	assert.Equal(t, "price_pro_v2", update.StripePriceID)
	if update.StripeCurrentPeriodEnd == nil {
		t.Fatal("expected period end to be set")
	}
	assert.Equal(t, int64(1738368000), update.StripeCurrentPeriodEnd.Unix())
	assert.Empty(t, repo.created, "renewal must not create records")
}

func TestApplyOtherEventIsNoOp(t *testing.T) {
	fetcher := &fakeFetcher{}
	repo := newFakeSubRepo()
	reducer := NewReducer(fetcher, repo)

	err := reducer.Apply(context.Background(), OtherEvent{Type: "customer.updated"})
	assert.NoError(t, err)
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, repo.created)
	assert.Empty(t, repo.updated)
}

func TestApplyPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("provider unavailable")
	fetcher := &fakeFetcher{err: fetchErr}
	repo := newFakeSubRepo()
	reducer := NewReducer(fetcher, repo)

	err := reducer.Apply(context.Background(), CheckoutCompleted{
		SubscriptionRef: "sub_123",
		UserID:          "42",
	})
	assert.ErrorIs(t, err, fetchErr)
	assert.Empty(t, repo.created)
}

func TestApplyPropagatesStoreError(t *testing.T) {
	fetcher := &fakeFetcher{sub: &ProviderSubscription{ID: "sub_123", CurrentPeriodEnd: 1735689600}}
	repo := newFakeSubRepo()
	repo.updateErr = errors.New("store down")
	reducer := NewReducer(fetcher, repo)

	err := reducer.Apply(context.Background(), InvoicePaymentSucceeded{SubscriptionRef: "sub_123"})
	assert.Error(t, err)
}
