package models

import (
	"time"

	"gorm.io/gorm"
)

// Date and KSU layouts for Ride.Date and Ride.Time
const (
	RideDateLayout = "2006-01-02"
	RideTimeLayout = "15:04"
)

type Ride struct {
	ID            string    `gorm:"primaryKey;type:varchar(40)"`
	GroupID       string    `gorm:"type:varchar(40);not null;index"`
	Title         string    `gorm:"type:varchar(255);not null"`
	Description   string    `gorm:"type:text"`
	Tips          string    `gorm:"type:text"`
	Date          string    `gorm:"type:varchar(10);not null"`
	Time          string    `gorm:"type:varchar(5);not null"` // KSU
	Distance      float64   `gorm:"not null"`                 // miles
	Elevation     int       `gorm:"not null"`                 // feet
	Level         Level     `gorm:"type:varchar(1);not null;index"`
	Terrain       Terrain   `gorm:"type:varchar(20);not null;index"`
	MinPoints     int64     `gorm:"default:0;not null"`
	MaxRiders     int       `gorm:"not null"`
	CurrentRiders int       `gorm:"default:0;not null"`
	LeaderName    string    `gorm:"type:varchar(255);not null"`
	MarshallName  string    `gorm:"type:varchar(255)"`
	TailName      string    `gorm:"type:varchar(255)"`
	RouteImage    string    `gorm:"type:varchar(500)"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// IsFull reports whether every slot is taken
func (r *Ride) IsFull() bool {
	return r.CurrentRiders >= r.MaxRiders
}

// SpotsLeft never goes below zero
func (r *Ride) SpotsLeft() int {
	if r.CurrentRiders >= r.MaxRiders {
		return 0
	}
	return r.MaxRiders - r.CurrentRiders
}

// StartsAt combines Date and Time in the given location
func (r *Ride) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(RideDateLayout+" "+RideTimeLayout, r.Date+" "+r.Time, loc)
}

// BeforeSave hook for validation
func (r *Ride) BeforeSave(tx *gorm.DB) error {
	if !r.Level.Valid() || !r.Terrain.Valid() {
		return gorm.ErrInvalidData
	}
	if r.MaxRiders < 1 {
		return gorm.ErrInvalidData
	}
	if r.CurrentRiders < 0 || r.CurrentRiders > r.MaxRiders {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Ride) TableName() string {
	return "rides"
}
