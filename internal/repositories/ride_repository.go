package repositories

import (
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RideRepository struct {
	db *gorm.DB
}

func NewRideRepository(db *gorm.DB) *RideRepository {
	return &RideRepository{db: db}
}

func (r *RideRepository) WithTx(tx *gorm.DB) *RideRepository {
	return &RideRepository{db: tx}
}

func (r *RideRepository) Upsert(ride *models.Ride) error {
	if err := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(ride).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save ride")
	}
	return nil
}

func (r *RideRepository) ListRides() ([]models.Ride, error) {
	var rides []models.Ride
	if err := r.db.Order("date ASC, time ASC, id ASC").Find(&rides).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list rides")
	}
	return rides, nil
}

