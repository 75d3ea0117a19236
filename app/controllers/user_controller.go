package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/inceptionai/inception/app/repository"
)

// HandleGetUserAccount returns account information for the authenticated
// user (API key or session).
func HandleGetUserAccount(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonUnauthorized(c)
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		log.Printf("failed to load user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	return c.JSON(fiber.Map{
		"id":                   user.ID,
		"name":                 user.Name,
		"email":                user.Email,
		"avatar_url":           user.AvatarURL,
		"api_key_prefix":       user.APIKeyPrefix,
		"api_key_created_at":   user.APIKeyCreatedAt,
		"api_key_last_used_at": user.APIKeyLastUsedAt,
		"created_at":           user.CreatedAt,
	})
}

// HandleIssueAPIKey generates a fresh API key for the user. The raw key
// is returned exactly once; only its hash is stored.
func HandleIssueAPIKey(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonUnauthorized(c)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userID)
	if err != nil {
		log.Printf("failed to load user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	rawKey, err := user.IssueAPIKey()
	if err != nil {
		log.Printf("failed to generate api key for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to generate API key")
	}
	if err := repo.Update(user); err != nil {
		log.Printf("failed to store api key for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store API key")
	}

	return c.JSON(fiber.Map{
		"api_key":        rawKey,
		"api_key_prefix": user.APIKeyPrefix,
		"created_at":     user.APIKeyCreatedAt,
	})
}

// HandleRevokeAPIKey clears the stored API key material.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonUnauthorized(c)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userID)
	if err != nil {
		log.Printf("failed to load user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	user.RevokeAPIKey()
	if err := repo.Update(user); err != nil {
		log.Printf("failed to revoke api key for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to revoke API key")
	}

	return c.JSON(fiber.Map{"message": "API key revoked"})
}
