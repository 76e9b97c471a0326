package repositories

import (
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// Upsert inserts the user or overwrites every column of the stored row.
func (r *UserRepository) Upsert(user *models.User) error {
	result := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(user)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to save user")
	}
	return nil
}

func (r *UserRepository) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := r.db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list users")
	}
	return users, nil
}
