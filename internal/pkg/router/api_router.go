package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/inceptionai/inception/app/controllers"
	"github.com/inceptionai/inception/app/repository"
	"github.com/inceptionai/inception/internal/pkg/ai"
	"github.com/inceptionai/inception/internal/pkg/billing"
	"github.com/inceptionai/inception/internal/pkg/entitlements"
	"github.com/inceptionai/inception/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	factory := repository.GetGlobalFactory()
	ent := entitlements.NewService(factory.GetAPILimitRepository(), factory.GetSubscriptionRepository())

	generation := controllers.NewGenerationController(ent, ai.NewOpenAIClientFromEnv(), ai.NewReplicateClientFromEnv())
	subscription := controllers.NewSubscriptionController(ent)
	webhooks := controllers.NewWebhookController(
		billing.NewReducer(billing.NewStripeFetcher(), factory.GetSubscriptionRepository()),
		billing.NewService(factory.GetWebhookEventRepository()),
	)

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Account lifecycle
	api.Post("/auth/register", controllers.HandleAuthRegister)
	api.Post("/auth/login", controllers.HandleAuthLogin)
	api.Post("/auth/logout", controllers.HandleAuthLogout)

	// Metered generation; the entitlement gate inside the controller
	// answers 401/403 itself.
	api.Post("/conversation", generation.HandleConversation)
	api.Post("/code", generation.HandleCode)
	api.Post("/image", generation.HandleImage)
	api.Post("/music", generation.HandleMusic)
	api.Post("/video", generation.HandleVideo)

	// Usage and billing
	api.Get("/subscription", subscription.HandleGetSubscription)
	api.Post("/stripe", middleware.RequireAPIAuth, controllers.HandleStripe)
	api.Post("/webhook", webhooks.HandleStripeWebhook)

	// Operational metrics
	api.Get("/stats", middleware.RequireAdmin, controllers.HandleGetStats)

	// Account management (session auth)
	api.Get("/user", middleware.RequireAPIAuth, controllers.HandleGetUserAccount)
	api.Post("/user/api-key", middleware.RequireAPIAuth, controllers.HandleIssueAPIKey)
	api.Delete("/user/api-key", middleware.RequireAPIAuth, controllers.HandleRevokeAPIKey)

	// API-key authenticated surface for programmatic clients
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	v1.Post("/conversation", generation.HandleConversation)
	v1.Post("/code", generation.HandleCode)
	v1.Post("/image", generation.HandleImage)
	v1.Post("/music", generation.HandleMusic)
	v1.Post("/video", generation.HandleVideo)
	v1.Get("/subscription", subscription.HandleGetSubscription)
	v1.Get("/user", controllers.HandleGetUserAccount)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
