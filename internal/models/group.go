package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Group struct {
	ID          string    `gorm:"primaryKey;type:varchar(40)"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Image       string    `gorm:"type:varchar(500)"`
	Code        string    `gorm:"type:varchar(12);uniqueIndex;not null"`
	IsPrivate   bool      `gorm:"default:false;not null"`
	MemberCount int       `gorm:"default:0;not null"`
	AdminID     string    `gorm:"type:varchar(40);index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Visibility returns "Private" or "Public"
func (g *Group) Visibility() string {
	if g.IsPrivate {
		return "Private"
	}
	return "Public"
}

// BeforeSave hook for validation
func (g *Group) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(g.Name) == "" {
		return gorm.ErrInvalidData
	}
	if g.Code == "" || g.Code != strings.ToUpper(g.Code) {
		return gorm.ErrInvalidData
	}
	if g.MemberCount < 0 {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Group) TableName() string {
	return "ride_groups"
}
