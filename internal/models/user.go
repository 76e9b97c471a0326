package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             string    `gorm:"primaryKey;type:varchar(40)"`
	TelegramID     int64     `gorm:"uniqueIndex;not null"`
	Name           string    `gorm:"type:varchar(255);not null"`
	Points         int64     `gorm:"default:0;not null"`
	AvatarURL      string    `gorm:"type:varchar(500)"`
	JoinedGroups   []string  `gorm:"serializer:json;type:text"`
	JoinedRides    []string  `gorm:"serializer:json;type:text"`
	RequestedRides []string  `gorm:"serializer:json;type:text"` // waiting for an admin decision
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// InGroup reports whether the user is a member of the group
func (u User) InGroup(groupID string) bool {
	return containsID(u.JoinedGroups, groupID)
}

// HasJoinedRide reports whether the user holds a slot on the ride
func (u User) HasJoinedRide(rideID string) bool {
	return containsID(u.JoinedRides, rideID)
}

// HasRequestedRide reports whether the user has a pending request for the ride
func (u User) HasRequestedRide(rideID string) bool {
	return containsID(u.RequestedRides, rideID)
}

// Clone returns a copy that shares no slices with u
func (u User) Clone() User {
	u.JoinedGroups = cloneIDs(u.JoinedGroups)
	u.JoinedRides = cloneIDs(u.JoinedRides)
	u.RequestedRides = cloneIDs(u.RequestedRides)
	return u
}

// BeforeSave hook for validation
func (u *User) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(u.Name) == "" {
		return gorm.ErrInvalidData
	}
	if u.Points < 0 {
		return gorm.ErrInvalidData
	}
	for _, id := range u.RequestedRides {
		if containsID(u.JoinedRides, id) {
			return gorm.ErrInvalidData
		}
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// WithID returns a new slice with id appended, leaving ids untouched.
func WithID(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

// WithoutID returns a new slice with every occurrence of id removed.
func WithoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
