package repositories

import (
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) WithTx(tx *gorm.DB) *GroupRepository {
	return &GroupRepository{db: tx}
}

func (r *GroupRepository) Upsert(group *models.Group) error {
	if err := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(group).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save group")
	}
	return nil
}

func (r *GroupRepository) GetGroupByCode(code string) (*models.Group, error) {
	var group models.Group
	if err := r.db.Where("code = ?", code).First(&group).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "group not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get group")
	}
	return &group, nil
}

func (r *GroupRepository) ListGroups() ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.Order("created_at ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list groups")
	}
	return groups, nil
}

func (r *GroupRepository) CountGroups() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Group{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count groups")
	}
	return count, nil
}
