package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inceptionai/inception/app/models"
)

// apiLimitRepository implements the APILimitRepository interface
type apiLimitRepository struct {
	db *gorm.DB
}

// NewAPILimitRepository creates a new usage counter repository instance
func NewAPILimitRepository(db *gorm.DB) APILimitRepository {
	return &apiLimitRepository{db: db}
}

// GetCount returns the stored count for the user, or 0 when no row exists.
func (r *apiLimitRepository) GetCount(userID uint) (int64, error) {
	var limit models.UserAPILimit
	err := r.db.Where("user_id = ?", userID).First(&limit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return limit.Count, nil
}

// Increment creates the row with count = 1 when absent, otherwise adds 1.
// The upsert resolves concurrent calls at the store layer; the observable
// result is always "lazily create at 1, else add 1".
func (r *apiLimitRepository) Increment(userID uint) error {
	limit := models.UserAPILimit{UserID: userID, Count: 1}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("count + ?", 1),
		}),
	}).Create(&limit).Error
}
