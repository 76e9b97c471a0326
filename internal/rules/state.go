package rules

import (
	"fmt"

	"github.com/mroshb/apex_bot/internal/models"
)

// RideState is where a (user, ride) pair sits in the membership state machine.
type RideState int

const (
	StateNotJoined RideState = iota
	StateJoined
	StateIneligible
	StateIneligibleRequested
)

func (s RideState) String() string {
	switch s {
	case StateNotJoined:
		return "not_joined"
	case StateJoined:
		return "joined"
	case StateIneligible:
		return "ineligible"
	case StateIneligibleRequested:
		return "ineligible_requested"
	}
	return "unknown"
}

// State computes the pair's state from the records. It is recomputed on every
// read, so awarded points move a rider out of the ineligible states.
func State(user models.User, ride models.Ride) RideState {
	switch {
	case user.HasJoinedRide(ride.ID):
		return StateJoined
	case !Eligible(user, ride) && user.HasRequestedRide(ride.ID):
		return StateIneligibleRequested
	case !Eligible(user, ride):
		return StateIneligible
	}
	return StateNotJoined
}

// Action is the single operation a caller should offer for a ride.
type Action int

const (
	ActionNone Action = iota
	ActionJoin
	ActionLeave
	ActionRequest
)

func (a Action) String() string {
	switch a {
	case ActionJoin:
		return "join"
	case ActionLeave:
		return "leave"
	case ActionRequest:
		return "request"
	}
	return "none"
}

// Offer pairs the action with the label to show. When Action is ActionNone the
// label explains why ("Ride Full", "Request Pending").
type Offer struct {
	Action Action
	Label  string
	Hint   string
}

// OfferFor decides which of JoinRide, LeaveRide and RequestRide applies.
func OfferFor(user models.User, ride models.Ride) Offer {
	switch State(user, ride) {
	case StateJoined:
		return Offer{Action: ActionLeave, Label: "Leave Ride"}
	case StateIneligibleRequested:
		return Offer{Action: ActionNone, Label: "Request Pending"}
	case StateIneligible:
		return Offer{
			Action: ActionRequest,
			Label:  "Request Entry",
			Hint:   fmt.Sprintf("Requires %d XP • Request to join", Threshold(ride)),
		}
	}
	if ride.IsFull() {
		return Offer{Action: ActionNone, Label: "Ride Full"}
	}
	return Offer{Action: ActionJoin, Label: "Join Ride"}
}
