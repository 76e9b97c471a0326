package services

import (
	"sort"

	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/pkg/errors"
)

// Dashboard is the group listing shown when no group is open.
type Dashboard struct {
	YourGroups   []models.Group
	PublicGroups []models.Group // open groups the user has not joined
}

// PendingRequest is a rider waiting for an admin decision on a ride.
type PendingRequest struct {
	Rider models.User
	Ride  models.Ride
}

func (s *ClubService) Dashboard(userID string) (Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return Dashboard{}, err
	}

	var d Dashboard
	for _, g := range s.orderedGroups() {
		switch {
		case user.InGroup(g.ID):
			d.YourGroups = append(d.YourGroups, g)
		case !g.IsPrivate:
			d.PublicGroups = append(d.PublicGroups, g)
		}
	}
	return d, nil
}

// ActiveGroup returns the group the user has open, if any.
func (s *ClubService) ActiveGroup(userID string) (models.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[userID]
	if !ok || v.ActiveGroupID == "" {
		return models.Group{}, false
	}
	g, ok := s.groups[v.ActiveGroupID]
	return g, ok
}

// GroupRides lists the rides of the user's active group after applying the
// level and terrain filters.
func (s *ClubService) GroupRides(userID string) ([]models.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.views[userID]
	if v.ActiveGroupID == "" {
		return nil, errors.ErrNoActiveGroupContext
	}

	var out []models.Ride
	for _, r := range s.orderedRides() {
		if r.GroupID != v.ActiveGroupID {
			continue
		}
		if v.LevelFilter != "" && r.Level != v.LevelFilter {
			continue
		}
		if v.TerrainFilter != "" && r.Terrain != v.TerrainFilter {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// RidesInGroup lists every ride of a group, unfiltered.
func (s *ClubService) RidesInGroup(groupID string) []models.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Ride
	for _, r := range s.orderedRides() {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	return out
}

// RideRoster lists the registered riders holding a slot on the ride.
func (s *ClubService) RideRoster(rideID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ride(rideID); err != nil {
		return nil, err
	}

	var out []models.User
	for _, u := range s.users {
		if u.HasJoinedRide(rideID) {
			out = append(out, u.Clone())
		}
	}
	sortUsers(out)
	return out, nil
}

// PendingRequests lists requests on rides in groups administered by adminID.
func (s *ClubService) PendingRequests(adminID string) []PendingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []PendingRequest
	for _, r := range s.orderedRides() {
		g, ok := s.groups[r.GroupID]
		if !ok || g.AdminID != adminID {
			continue
		}
		var riders []models.User
		for _, u := range s.users {
			if u.HasRequestedRide(r.ID) {
				riders = append(riders, u.Clone())
			}
		}
		sortUsers(riders)
		for _, u := range riders {
			out = append(out, PendingRequest{Rider: u, Ride: r})
		}
	}
	return out
}

// AdminGroups lists the groups administered by userID.
func (s *ClubService) AdminGroups(userID string) []models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Group
	for _, g := range s.orderedGroups() {
		if g.AdminID == userID {
			out = append(out, g)
		}
	}
	return out
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
}

// Stats counts the club's records for the owner's /stats command.
type Stats struct {
	Users           int
	Groups          int
	PrivateGroups   int
	Rides           int
	FullRides       int
	PendingRequests int
}

func (s *ClubService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Users: len(s.users), Groups: len(s.groups), Rides: len(s.rides)}
	for _, g := range s.groups {
		if g.IsPrivate {
			st.PrivateGroups++
		}
	}
	for _, r := range s.rides {
		if r.IsFull() {
			st.FullRides++
		}
	}
	for _, u := range s.users {
		st.PendingRequests += len(u.RequestedRides)
	}
	return st
}
