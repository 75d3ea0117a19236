package models

import "time"

// Billing provider constants used across billing-related models.
const (
	BillingProviderStripe = "stripe"
)

// UserSubscription mirrors the Stripe subscription state for a user. A row
// without a price id or period end is treated as "not subscribed" by the
// entitlement layer.
type UserSubscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	StripeCustomerID       string     `gorm:"type:varchar(191);default:'';index" json:"stripe_customer_id"`
	StripeSubscriptionID   string     `gorm:"type:varchar(191);default:'';uniqueIndex" json:"stripe_subscription_id"`
	StripePriceID          string     `gorm:"type:varchar(191);default:''" json:"stripe_price_id"`
	StripeCurrentPeriodEnd *time.Time `gorm:"type:timestamp;default:null" json:"stripe_current_period_end,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
