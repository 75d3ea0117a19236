package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/inceptionai/inception/app/models"
	"github.com/inceptionai/inception/internal/pkg/billing"
)

type stubFetcher struct {
	sub *billing.ProviderSubscription
	err error
}

func (f *stubFetcher) FetchSubscription(_ context.Context, _ string) (*billing.ProviderSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

type stubEventRepo struct {
	nextID uint
	marked map[uint]string
}

func (r *stubEventRepo) CreateIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	r.nextID++
	event.ID = r.nextID
	return true, event, nil
}

func (r *stubEventRepo) MarkProcessed(id uint, processingError string) error {
	if r.marked == nil {
		r.marked = make(map[uint]string)
	}
	r.marked[id] = processingError
	return nil
}

type webhookFixture struct {
	app  *fiber.App
	subs *memSubRepo
}

// newWebhookFixture wires the webhook route with payload-trusting
// signature verification; a "bad" signature header still fails.
func newWebhookFixture(t *testing.T, fetcher *stubFetcher) *webhookFixture {
	t.Helper()

	subs := newMemSubRepo()
	reducer := billing.NewReducer(fetcher, subs)
	audit := billing.NewService(&stubEventRepo{})

	wc := NewWebhookController(reducer, audit)
	wc.verify = func(payload []byte, signatureHeader string) (stripe.Event, error) {
		if signatureHeader != "valid" {
			return stripe.Event{}, errors.New("signature mismatch")
		}
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return stripe.Event{}, err
		}
		return event, nil
	}

	app := fiber.New()
	app.Post("/api/webhook", wc.HandleStripeWebhook)

	return &webhookFixture{app: app, subs: subs}
}

func postWebhook(t *testing.T, app *fiber.App, signature, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestWebhookInvalidSignature(t *testing.T) {
	fx := newWebhookFixture(t, &stubFetcher{})

	resp := postWebhook(t, fx.app, "bad", `{"id":"evt_1","type":"checkout.session.completed"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, fx.subs.subs)
}

func TestWebhookCheckoutCompleted(t *testing.T) {
	fetcher := &stubFetcher{sub: &billing.ProviderSubscription{
		ID:               "sub_123",
		CustomerID:       "cus_456",
		PriceID:          "price_pro",
		CurrentPeriodEnd: 1735689600,
	}}
	fx := newWebhookFixture(t, fetcher)

	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"subscription":"sub_123","metadata":{"user_id":"42"}}}}`
	resp := postWebhook(t, fx.app, "valid", body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	record := fx.subs.subs[42]
	if record == nil {
		t.Fatal("expected a subscription record for user 42")
	}
	assert.Equal(t, "sub_123", record.StripeSubscriptionID)
	assert.Equal(t, "cus_456", record.StripeCustomerID)
	assert.Equal(t, "price_pro", record.StripePriceID)
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, record.StripeCurrentPeriodEnd.Equal(want))
}

func TestWebhookCheckoutCompletedMissingUserID(t *testing.T) {
	fx := newWebhookFixture(t, &stubFetcher{sub: &billing.ProviderSubscription{ID: "sub_123"}})

	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"subscription":"sub_123","metadata":{}}}}`
	resp := postWebhook(t, fx.app, "valid", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, fx.subs.subs, "no record must be created")

	var out struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "User id is required", out.Message)
}

func TestWebhookInvoicePaymentSucceeded(t *testing.T) {
	fetcher := &stubFetcher{sub: &billing.ProviderSubscription{
		ID:               "sub_123",
		PriceID:          "price_pro",
		CurrentPeriodEnd: 1735689600,
	}}
	fx := newWebhookFixture(t, fetcher)

	// Seed the record a checkout created earlier.
	staleEnd := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	fx.subs.subs[42] = &models.UserSubscription{
		UserID:                 42,
		StripeSubscriptionID:   "sub_123",
		StripePriceID:          "price_old",
		StripeCurrentPeriodEnd: &staleEnd,
	}

	body := `{"id":"evt_2","type":"invoice.payment_succeeded","data":{"object":{"subscription":"sub_123"}}}`
	resp := postWebhook(t, fx.app, "valid", body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	record := fx.subs.subs[42]
	assert.Equal(t, "price_pro", record.StripePriceID)
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, record.StripeCurrentPeriodEnd.Equal(want))
}

func TestWebhookInvoiceForUnknownSubscription(t *testing.T) {
	fetcher := &stubFetcher{sub: &billing.ProviderSubscription{
		ID:               "sub_unknown",
		PriceID:          "price_pro",
		CurrentPeriodEnd: 1735689600,
	}}
	fx := newWebhookFixture(t, fetcher)

	// A renewal for a subscription with no local record must fail so the
	// provider redelivers instead of the event being dropped.
	body := `{"id":"evt_5","type":"invoice.payment_succeeded","data":{"object":{"subscription":"sub_unknown"}}}`
	resp := postWebhook(t, fx.app, "valid", body)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, fx.subs.subs)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	fx := newWebhookFixture(t, &stubFetcher{err: errors.New("must not be called")})

	body := `{"id":"evt_3","type":"customer.updated","data":{"object":{}}}`
	resp := postWebhook(t, fx.app, "valid", body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, fx.subs.subs)
}

func TestWebhookProviderFailurePropagates(t *testing.T) {
	fx := newWebhookFixture(t, &stubFetcher{err: errors.New("provider unavailable")})

	body := `{"id":"evt_4","type":"invoice.payment_succeeded","data":{"object":{"subscription":"sub_123"}}}`
	resp := postWebhook(t, fx.app, "valid", body)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
