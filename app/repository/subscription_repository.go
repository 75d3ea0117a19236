package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/inceptionai/inception/app/models"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByUserID returns the user's subscription record, or (nil, nil) when
// none exists.
func (r *subscriptionRepository) GetByUserID(userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.
		Select("id", "user_id", "stripe_customer_id", "stripe_subscription_id", "stripe_price_id", "stripe_current_period_end").
		Where("user_id = ?", userID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(sub *models.UserSubscription) error {
	return r.db.Create(sub).Error
}

// UpdateBySubscriptionID overwrites price id and period end on the record
// matched by its Stripe subscription id. A subscription id without a
// local record is an error so callers fail loudly instead of dropping
// the update.
func (r *subscriptionRepository) UpdateBySubscriptionID(stripeSubscriptionID string, sub *models.UserSubscription) error {
	res := r.db.Model(&models.UserSubscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(map[string]interface{}{
			"stripe_price_id":           sub.StripePriceID,
			"stripe_current_period_end": sub.StripeCurrentPeriodEnd,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
