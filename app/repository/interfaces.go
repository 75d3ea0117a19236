package repository

import (
	"github.com/inceptionai/inception/app/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	TouchAPIKeyUsage(userID uint) error
	TouchLastLogin(userID uint) error
}

// APILimitRepository defines the interface for the free-tier usage counter
type APILimitRepository interface {
	// GetCount returns the stored count for the user, or 0 when no row exists.
	GetCount(userID uint) (int64, error)
	// Increment creates the row with count = 1 when absent, otherwise adds 1.
	// The upsert is atomic at the store layer.
	Increment(userID uint) error
}

// SubscriptionRepository defines the interface for billing-derived
// subscription records
type SubscriptionRepository interface {
	// GetByUserID returns (nil, nil) when the user has no record.
	GetByUserID(userID uint) (*models.UserSubscription, error)
	Create(sub *models.UserSubscription) error
	// UpdateBySubscriptionID overwrites price id and period end on the record
	// matched by its Stripe subscription id. Returns an error when no record
	// matches.
	UpdateBySubscriptionID(stripeSubscriptionID string, sub *models.UserSubscription) error
}

// WebhookEventRepository defines the interface for the webhook audit trail
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	APILimit     APILimitRepository
	Subscription SubscriptionRepository
	WebhookEvent WebhookEventRepository
}
