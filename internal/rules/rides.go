package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/pkg/errors"
)

// RideInput is the form a ride leader fills in. MinPoints is not part of it:
// the threshold always comes from the level policy.
type RideInput struct {
	Title        string
	Description  string
	Tips         string
	Date         string
	Time         string
	Distance     float64
	Elevation    int
	Level        models.Level
	Terrain      models.Terrain
	MaxRiders    int
	LeaderName   string
	MarshallName string
	TailName     string
}

// Validate checks the fields a ride cannot be created without
func (in RideInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return errors.New(errors.ErrCodeValidation, "Ride title is required.")
	case strings.TrimSpace(in.LeaderName) == "":
		return errors.New(errors.ErrCodeValidation, "A ride needs a leader.")
	case !in.Level.Valid():
		return errors.New(errors.ErrCodeValidation, "Pick a level between A and D.")
	case !in.Terrain.Valid():
		return errors.New(errors.ErrCodeValidation, "Pick a terrain.")
	case in.MaxRiders < 1:
		return errors.New(errors.ErrCodeValidation, "A ride needs room for at least one rider.")
	case in.Distance < 0 || in.Elevation < 0:
		return errors.New(errors.ErrCodeValidation, "Distance and elevation cannot be negative.")
	}
	if _, err := time.Parse(models.RideDateLayout, in.Date); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "Date must look like 2024-05-30.")
	}
	if _, err := time.Parse(models.RideTimeLayout, in.Time); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "KSU time must look like 07:30.")
	}
	return nil
}

// NewRide creates a ride in groupID led by creator. The leader takes the first slot.
func NewRide(input RideInput, groupID string, creator models.User, ks Keyspace) (models.Ride, models.User, error) {
	if groupID == "" {
		return models.Ride{}, creator, errors.ErrNoActiveGroupContext
	}
	if err := input.Validate(); err != nil {
		return models.Ride{}, creator, err
	}
	minPoints, err := models.MinPointsFor(input.Level)
	if err != nil {
		return models.Ride{}, creator, errors.Wrap(err, errors.ErrCodeValidation, "Pick a level between A and D.")
	}
	id, err := newID(rideIDPrefix, ks)
	if err != nil {
		return models.Ride{}, creator, err
	}

	ride := models.Ride{
		ID:            id,
		GroupID:       groupID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Tips:          strings.TrimSpace(input.Tips),
		Date:          input.Date,
		Time:          input.Time,
		Distance:      input.Distance,
		Elevation:     input.Elevation,
		Level:         input.Level,
		Terrain:       input.Terrain,
		MinPoints:     minPoints,
		MaxRiders:     input.MaxRiders,
		CurrentRiders: 1,
		LeaderName:    strings.TrimSpace(input.LeaderName),
		MarshallName:  strings.TrimSpace(input.MarshallName),
		TailName:      strings.TrimSpace(input.TailName),
		RouteImage:    fmt.Sprintf("https://picsum.photos/seed/%s/800/300", id),
	}

	u := creator.Clone()
	u.JoinedRides = models.WithID(u.JoinedRides, ride.ID)
	return ride, u, nil
}

// Threshold is the XP a rider needs for ride, looked up from the level policy.
// Rides with an unknown level fall back to their stored MinPoints.
func Threshold(ride models.Ride) int64 {
	if p, err := models.MinPointsFor(ride.Level); err == nil {
		return p
	}
	return ride.MinPoints
}

// Eligible reports whether user has enough XP for ride. Capacity is separate.
func Eligible(user models.User, ride models.Ride) bool {
	return user.Points >= Threshold(ride)
}

// JoinRide takes a slot on ride.
func JoinRide(user models.User, ride models.Ride) (models.User, models.Ride, error) {
	if user.HasJoinedRide(ride.ID) {
		return user, ride, errors.ErrInvalidTransition
	}
	if !Eligible(user, ride) {
		return user, ride, errors.ErrNotEligible
	}
	if ride.IsFull() {
		return user, ride, errors.ErrRideFull
	}

	u := user.Clone()
	u.JoinedRides = models.WithID(u.JoinedRides, ride.ID)
	u.RequestedRides = models.WithoutID(u.RequestedRides, ride.ID)
	ride.CurrentRiders++
	return u, ride, nil
}

// LeaveRide gives back the user's slot. Leaving a ride the user never joined,
// or one whose counter is already zero, is rejected rather than corrupting
// the counter.
func LeaveRide(user models.User, ride models.Ride) (models.User, models.Ride, error) {
	if !user.HasJoinedRide(ride.ID) || ride.CurrentRiders <= 0 {
		return user, ride, errors.ErrInvalidTransition
	}

	u := user.Clone()
	u.JoinedRides = models.WithoutID(u.JoinedRides, ride.ID)
	ride.CurrentRiders--
	return u, ride, nil
}

// RequestRide records interest in a ride the user does not have the XP for.
func RequestRide(user models.User, ride models.Ride) (models.User, error) {
	if user.HasJoinedRide(ride.ID) || Eligible(user, ride) {
		return user, errors.ErrInvalidTransition
	}
	if user.HasRequestedRide(ride.ID) {
		return user, errors.ErrAlreadyRequested
	}

	u := user.Clone()
	u.RequestedRides = models.WithID(u.RequestedRides, ride.ID)
	return u, nil
}

// ApproveRequest turns a pending request into a slot on the ride. The XP
// threshold is waived by the approval; capacity is not.
func ApproveRequest(user models.User, ride models.Ride) (models.User, models.Ride, error) {
	if !user.HasRequestedRide(ride.ID) || user.HasJoinedRide(ride.ID) {
		return user, ride, errors.ErrInvalidTransition
	}
	if ride.IsFull() {
		return user, ride, errors.ErrRideFull
	}

	u := user.Clone()
	u.RequestedRides = models.WithoutID(u.RequestedRides, ride.ID)
	u.JoinedRides = models.WithID(u.JoinedRides, ride.ID)
	ride.CurrentRiders++
	return u, ride, nil
}

// DeclineRequest drops a pending request.
func DeclineRequest(user models.User, ride models.Ride) (models.User, error) {
	if !user.HasRequestedRide(ride.ID) {
		return user, errors.ErrInvalidTransition
	}

	u := user.Clone()
	u.RequestedRides = models.WithoutID(u.RequestedRides, ride.ID)
	return u, nil
}

// AwardPoints adds delta XP. Balances never go below zero.
func AwardPoints(user models.User, delta int64) models.User {
	u := user.Clone()
	u.Points += delta
	if u.Points < 0 {
		u.Points = 0
	}
	return u
}
