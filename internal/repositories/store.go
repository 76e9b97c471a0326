package repositories

import (
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/pkg/errors"
	"gorm.io/gorm"
)

// Store persists club changesets to postgres. It satisfies the club
// service's Persister.
type Store struct {
	db     *gorm.DB
	Users  *UserRepository
	Groups *GroupRepository
	Rides  *RideRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:     db,
		Users:  NewUserRepository(db),
		Groups: NewGroupRepository(db),
		Rides:  NewRideRepository(db),
	}
}

// Commit writes every record of cs in one transaction.
func (s *Store) Commit(cs models.Changeset) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.Groups.WithTx(tx)
		for i := range cs.Groups {
			if err := groups.Upsert(&cs.Groups[i]); err != nil {
				return err
			}
		}

		rides := s.Rides.WithTx(tx)
		for i := range cs.Rides {
			if err := rides.Upsert(&cs.Rides[i]); err != nil {
				return err
			}
		}

		users := s.Users.WithTx(tx)
		for i := range cs.Users {
			if err := users.Upsert(&cs.Users[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll reads the full club state for the in-memory service.
func (s *Store) LoadAll() ([]models.User, []models.Group, []models.Ride, error) {
	users, err := s.Users.ListUsers()
	if err != nil {
		return nil, nil, nil, err
	}
	groups, err := s.Groups.ListGroups()
	if err != nil {
		return nil, nil, nil, err
	}
	rides, err := s.Rides.ListRides()
	if err != nil {
		return nil, nil, nil, err
	}
	return users, groups, rides, nil
}

// SeedIfEmpty stores groups and rides when no group exists yet.
func (s *Store) SeedIfEmpty(groups []models.Group, rides []models.Ride) (bool, error) {
	count, err := s.Groups.CountGroups()
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.Commit(models.Changeset{Groups: groups, Rides: rides}); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to seed demo data")
	}
	return true, nil
}
