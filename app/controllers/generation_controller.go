package controllers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/inceptionai/inception/internal/pkg/ai"
	"github.com/inceptionai/inception/internal/pkg/entitlements"
	"github.com/inceptionai/inception/internal/pkg/metrics/counter"
)

// GenerationController serves the metered generation endpoints. Every
// route runs the same gate: unauthenticated requests get 401, a bad
// request body gets 400 before any quota check, users with neither free
// quota nor an active subscription get 403, and the free counter is
// consumed only after the vendor call succeeded and only for
// unsubscribed users.
type GenerationController struct {
	ent       *entitlements.Service
	openai    *ai.OpenAIClient
	replicate *ai.ReplicateClient
}

func NewGenerationController(ent *entitlements.Service, openai *ai.OpenAIClient, replicate *ai.ReplicateClient) *GenerationController {
	return &GenerationController{ent: ent, openai: openai, replicate: replicate}
}

type conversationRequest struct {
	Messages []ai.ChatMessage `json:"messages"`
}

// imageRequest keeps amount and resolution as pointers: an absent field
// falls back to the default, an explicit zero value is rejected.
type imageRequest struct {
	Prompt     string  `json:"prompt"`
	Amount     *int    `json:"amount"`
	Resolution *string `json:"resolution"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// authorize runs the entitlement gate and replies for denied requests.
// The returned verdict is only meaningful when err is nil and replied is
// false.
func (gc *GenerationController) authorize(c *fiber.Ctx) (entitlements.Verdict, bool, error) {
	userID := currentUserID(c)

	verdict, err := gc.ent.Authorize(userID)
	if err != nil {
		log.Printf("entitlement check failed for user %d: %v", userID, err)
		return verdict, true, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}
	if verdict.Allowed {
		return verdict, false, nil
	}

	switch verdict.Reason {
	case entitlements.ReasonUnauthenticated:
		return verdict, true, jsonUnauthorized(c)
	default:
		return verdict, true, jsonError(c, fiber.StatusForbidden, "forbidden", entitlements.QuotaExhaustedMessage)
	}
}

// recordUsage consumes the free counter after a successful generation
// and bumps the operational metrics. Subscribed users never consume
// quota.
func (gc *GenerationController) recordUsage(c *fiber.Ctx, verdict entitlements.Verdict, kind string) {
	if err := counter.AddGeneration(kind); err != nil {
		log.Printf("failed to count %s generation: %v", kind, err)
	}

	if verdict.Subscribed {
		return
	}
	userID := currentUserID(c)
	if err := gc.ent.RecordUsage(userID); err != nil {
		log.Printf("failed to record usage for user %d: %v", userID, err)
	}
}

// HandleConversation proxies a chat completion.
func (gc *GenerationController) HandleConversation(c *fiber.Ctx) error {
	if currentUserID(c) == 0 {
		return jsonUnauthorized(c)
	}

	var req conversationRequest
	if err := c.BodyParser(&req); err != nil || len(req.Messages) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Messages are required")
	}

	verdict, replied, err := gc.authorize(c)
	if replied {
		return err
	}

	reply, err := gc.openai.ChatCompletion(requestContext(c), req.Messages)
	if err != nil {
		log.Printf("[%s] conversation generation failed: %v", requestID(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}

	gc.recordUsage(c, verdict, counter.KindConversation)

	return c.JSON(reply)
}

// HandleCode proxies a chat completion with the code generator system
// instruction.
func (gc *GenerationController) HandleCode(c *fiber.Ctx) error {
	if currentUserID(c) == 0 {
		return jsonUnauthorized(c)
	}

	var req conversationRequest
	if err := c.BodyParser(&req); err != nil || len(req.Messages) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Messages are required")
	}

	verdict, replied, err := gc.authorize(c)
	if replied {
		return err
	}

	reply, err := gc.openai.CodeCompletion(requestContext(c), req.Messages)
	if err != nil {
		log.Printf("[%s] code generation failed: %v", requestID(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}

	gc.recordUsage(c, verdict, counter.KindCode)

	return c.JSON(reply)
}

// HandleImage proxies image generation.
func (gc *GenerationController) HandleImage(c *fiber.Ctx) error {
	if currentUserID(c) == 0 {
		return jsonUnauthorized(c)
	}

	var req imageRequest
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Prompt is required")
	}
	if req.Amount != nil && *req.Amount == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Amount is required")
	}
	if req.Resolution != nil && *req.Resolution == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Resolution is required")
	}

	amount := 1
	if req.Amount != nil {
		amount = *req.Amount
	}
	resolution := "512x512"
	if req.Resolution != nil {
		resolution = *req.Resolution
	}

	verdict, replied, err := gc.authorize(c)
	if replied {
		return err
	}

	urls, err := gc.openai.GenerateImages(requestContext(c), req.Prompt, amount, resolution)
	if err != nil {
		log.Printf("[%s] image generation failed: %v", requestID(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}

	gc.recordUsage(c, verdict, counter.KindImage)

	images := make([]fiber.Map, 0, len(urls))
	for _, u := range urls {
		images = append(images, fiber.Map{"url": u})
	}
	return c.JSON(images)
}

// HandleMusic proxies music generation.
func (gc *GenerationController) HandleMusic(c *fiber.Ctx) error {
	if currentUserID(c) == 0 {
		return jsonUnauthorized(c)
	}

	var req promptRequest
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Prompt is required")
	}

	verdict, replied, err := gc.authorize(c)
	if replied {
		return err
	}

	audioURL, err := gc.replicate.GenerateMusic(requestContext(c), req.Prompt)
	if err != nil {
		log.Printf("[%s] music generation failed: %v", requestID(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}

	gc.recordUsage(c, verdict, counter.KindMusic)

	return c.JSON(fiber.Map{"url": audioURL})
}

// HandleVideo proxies video generation. The prediction output is
// returned as-is.
func (gc *GenerationController) HandleVideo(c *fiber.Ctx) error {
	if currentUserID(c) == 0 {
		return jsonUnauthorized(c)
	}

	var req promptRequest
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Prompt is required")
	}

	verdict, replied, err := gc.authorize(c)
	if replied {
		return err
	}

	videoURL, err := gc.replicate.GenerateVideo(requestContext(c), req.Prompt)
	if err != nil {
		log.Printf("[%s] video generation failed: %v", requestID(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}

	gc.recordUsage(c, verdict, counter.KindVideo)

	return c.JSON(videoURL)
}

// requestContext returns the per-request context for downstream calls.
func requestContext(c *fiber.Ctx) context.Context {
	return c.UserContext()
}

// requestID yields a correlation id for log lines of one request.
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
