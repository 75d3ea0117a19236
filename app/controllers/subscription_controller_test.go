package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/inceptionai/inception/internal/pkg/entitlements"
)

func newSubscriptionFixture(t *testing.T, userID uint) (*fiber.App, *memLimitRepo, *memSubRepo) {
	t.Helper()

	limits := newMemLimitRepo()
	subs := newMemSubRepo()
	sc := NewSubscriptionController(entitlements.NewService(limits, subs))

	app := fiber.New()
	app.Use(withUser(userID))
	app.Get("/api/subscription", sc.HandleGetSubscription)
	return app, limits, subs
}

func getSubscription(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/subscription", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestGetSubscriptionUnauthenticated(t *testing.T) {
	app, _, _ := newSubscriptionFixture(t, 0)

	resp := getSubscription(t, app)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetSubscriptionFreeUser(t *testing.T) {
	app, limits, _ := newSubscriptionFixture(t, 7)
	limits.counts[7] = 3

	resp := getSubscription(t, app)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Count     int64 `json:"count"`
		FreeLimit int64 `json:"free_limit"`
		IsPro     bool  `json:"is_pro"`
	}
	body, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, int64(3), out.Count)
	assert.Equal(t, int64(5), out.FreeLimit)
	assert.False(t, out.IsPro)
}

func TestGetSubscriptionProUser(t *testing.T) {
	app, limits, subs := newSubscriptionFixture(t, 7)
	limits.counts[7] = 12
	subs.subs[7] = activeSubscription(7)

	resp := getSubscription(t, app)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Count int64 `json:"count"`
		IsPro bool  `json:"is_pro"`
	}
	body, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, int64(12), out.Count)
	assert.True(t, out.IsPro)
}
