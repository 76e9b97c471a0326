package models

// Changeset carries the records touched by one state transition so they can
// be persisted together.
type Changeset struct {
	Users  []User
	Groups []Group
	Rides  []Ride
}

func (c *Changeset) Empty() bool {
	return len(c.Users) == 0 && len(c.Groups) == 0 && len(c.Rides) == 0
}
