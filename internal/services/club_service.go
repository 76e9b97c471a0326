package services

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/logger"
	"github.com/mroshb/apex_bot/pkg/utils"
)

const (
	DefaultGroupCode = "COFFEE"
	DefaultGroupName = "Apex Riders"
)

// Persister stores the records touched by one state transition atomically.
type Persister interface {
	Commit(cs models.Changeset) error
}

// ViewState is a user's current browsing selection. Empty filters mean "all".
type ViewState struct {
	ActiveGroupID string
	LevelFilter   models.Level
	TerrainFilter models.Terrain
}

// Options configures a ClubService. The owner claims the default group when
// it has no admin.
type Options struct {
	DefaultGroupCode string
	OwnerTelegramID  int64
	Persister        Persister
}

// ClubService owns the canonical users, groups and rides. Every handler runs
// under one mutex, evaluates the rules on copies, persists the changeset and
// only then replaces the in-memory records.
type ClubService struct {
	mu sync.Mutex

	users      map[string]models.User
	byTelegram map[int64]string
	groups     map[string]models.Group
	groupOrder []string
	rides      map[string]models.Ride
	rideOrder  []string
	views      map[string]ViewState

	defaultGroupCode string
	ownerTelegramID  int64
	persister        Persister
}

func NewClubService(opts Options) *ClubService {
	code := utils.NormalizeCode(opts.DefaultGroupCode)
	if code == "" {
		code = DefaultGroupCode
	}
	return &ClubService{
		users:            make(map[string]models.User),
		byTelegram:       make(map[int64]string),
		groups:           make(map[string]models.Group),
		rides:            make(map[string]models.Ride),
		views:            make(map[string]ViewState),
		defaultGroupCode: code,
		ownerTelegramID:  opts.OwnerTelegramID,
		persister:        opts.Persister,
	}
}

// Load replaces the in-memory state with previously stored records. It does
// not persist anything.
func (s *ClubService) Load(users []models.User, groups []models.Group, rides []models.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]models.User, len(users))
	s.byTelegram = make(map[int64]string, len(users))
	s.groups = make(map[string]models.Group, len(groups))
	s.groupOrder = s.groupOrder[:0]
	s.rides = make(map[string]models.Ride, len(rides))
	s.rideOrder = s.rideOrder[:0]

	for _, u := range users {
		s.putUser(u)
	}
	for _, g := range groups {
		s.putGroup(g)
	}
	for _, r := range rides {
		s.putRide(r)
	}

	logger.Info("Club state loaded",
		"users", len(s.users),
		"groups", len(s.groups),
		"rides", len(s.rides))
}

// Login returns the user bound to telegramID, creating it on first contact.
// New users start with zero points and are enrolled in the default group.
func (s *ClubService) Login(telegramID int64, name string) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byTelegram[telegramID]; ok {
		user, err := s.claimDefaultGroup(s.users[id])
		if err != nil {
			return models.User{}, false, err
		}
		return user.Clone(), false, nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Rider"
	}

	user := models.User{
		ID:         uuid.NewString(),
		TelegramID: telegramID,
		Name:       name,
		Points:     0,
		AvatarURL:  AvatarURL(name),
	}

	cs := models.Changeset{}
	enrolled, group, err := rules.JoinByCode(user, s.orderedGroups(), s.defaultGroupCode)
	if err != nil {
		logger.Warn("Default group unavailable, new user starts without a group",
			"code", s.defaultGroupCode,
			"error", err)
	} else {
		user = enrolled
		cs.Groups = append(cs.Groups, group)
	}
	cs.Users = append(cs.Users, user)

	if err := s.commit(cs); err != nil {
		return models.User{}, false, err
	}
	logger.Info("User registered", "user_id", user.ID, "telegram_id", telegramID)

	user, err = s.claimDefaultGroup(user)
	if err != nil {
		return models.User{}, false, err
	}
	return user.Clone(), true, nil
}

// EnsureDefaultGroup creates the public group new users are enrolled in
// unless a group already carries the default code.
func (s *ClubService) EnsureDefaultGroup() (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.orderedGroups()
	if idx := rules.FindGroupByCode(groups, s.defaultGroupCode); idx >= 0 {
		return groups[idx], nil
	}

	group, err := rules.DefaultGroup(DefaultGroupName, s.defaultGroupCode, keyspace{s})
	if err != nil {
		return models.Group{}, err
	}
	if err := s.commit(models.Changeset{Groups: []models.Group{group}}); err != nil {
		return models.Group{}, err
	}

	logger.Info("Default group created", "group_id", group.ID, "code", group.Code)
	return group, nil
}

// claimDefaultGroup hands an admin-less default group to the owner.
func (s *ClubService) claimDefaultGroup(user models.User) (models.User, error) {
	if s.ownerTelegramID == 0 || user.TelegramID != s.ownerTelegramID {
		return user, nil
	}
	groups := s.orderedGroups()
	idx := rules.FindGroupByCode(groups, s.defaultGroupCode)
	if idx < 0 {
		return user, nil
	}

	user, group, changed := rules.ClaimGroup(user, groups[idx])
	if !changed {
		return user, nil
	}
	if err := s.commit(models.Changeset{Users: []models.User{user}, Groups: []models.Group{group}}); err != nil {
		return models.User{}, err
	}

	logger.Info("Owner claimed default group", "user_id", user.ID, "group_id", group.ID)
	return user, nil
}

// AvatarURL synthesises an avatar image for a display name.
func AvatarURL(name string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=0D8ABC&color=fff", url.QueryEscape(name))
}

func (s *ClubService) User(userID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return models.User{}, err
	}
	return u.Clone(), nil
}

func (s *ClubService) UserByTelegram(telegramID int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTelegram[telegramID]
	if !ok {
		return models.User{}, errors.New(errors.ErrCodeNotFound, "Rider not found. Send /start first.")
	}
	return s.users[id].Clone(), nil
}

func (s *ClubService) Group(groupID string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.group(groupID)
}

func (s *ClubService) Ride(rideID string) (models.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ride(rideID)
}

// JoinGroupByCode joins the group with the given code, private or not, and
// makes it the user's active group.
func (s *ClubService) JoinGroupByCode(userID, code string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return models.Group{}, err
	}

	user, group, err := rules.JoinByCode(user, s.orderedGroups(), code)
	if errors.Is(err, errors.ErrAlreadyMember) {
		// Still open the group so the user lands where the code points.
		v := s.views[userID]
		v.ActiveGroupID = group.ID
		s.views[userID] = v
		return group, err
	}
	if err != nil {
		return models.Group{}, err
	}
	if err := s.commit(models.Changeset{Users: []models.User{user}, Groups: []models.Group{group}}); err != nil {
		return models.Group{}, err
	}

	s.views[userID] = ViewState{ActiveGroupID: group.ID}
	logger.Info("User joined group by code", "user_id", userID, "group_id", group.ID)
	return group, nil
}

// JoinPublicGroup joins an open group. Joining a group the user already
// belongs to returns the group unchanged.
func (s *ClubService) JoinPublicGroup(userID, groupID string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return models.Group{}, err
	}
	group, err := s.group(groupID)
	if err != nil {
		return models.Group{}, err
	}

	user, group, changed, err := rules.JoinPublic(user, group)
	if err != nil || !changed {
		return group, err
	}
	if err := s.commit(models.Changeset{Users: []models.User{user}, Groups: []models.Group{group}}); err != nil {
		return models.Group{}, err
	}

	logger.Info("User joined public group", "user_id", userID, "group_id", group.ID)
	return group, nil
}

func (s *ClubService) CreateGroup(userID string, input rules.GroupInput) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return models.Group{}, err
	}

	group, user, err := rules.NewGroup(input, user, keyspace{s})
	if err != nil {
		return models.Group{}, err
	}
	if err := s.commit(models.Changeset{Users: []models.User{user}, Groups: []models.Group{group}}); err != nil {
		return models.Group{}, err
	}

	logger.Info("Group created", "group_id", group.ID, "admin_id", userID, "private", group.IsPrivate)
	return group, nil
}

// OpenGroup selects the group whose rides the user is browsing. Public groups
// can be previewed without joining; private ones need membership.
func (s *ClubService) OpenGroup(userID, groupID string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return models.Group{}, err
	}
	group, err := s.group(groupID)
	if err != nil {
		return models.Group{}, err
	}
	if group.IsPrivate && !user.InGroup(group.ID) {
		return models.Group{}, errors.ErrPrivateGroup
	}

	s.views[userID] = ViewState{ActiveGroupID: group.ID}
	return group, nil
}

// CloseGroup returns the user to the group dashboard and clears filters.
func (s *ClubService) CloseGroup(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.views, userID)
}

// SetLevelFilter narrows GroupRides to one level. An empty level shows all.
func (s *ClubService) SetLevelFilter(userID string, level models.Level) error {
	if level != "" && !level.Valid() {
		return errors.New(errors.ErrCodeValidation, "Unknown level.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.views[userID]
	v.LevelFilter = level
	s.views[userID] = v
	return nil
}

// SetTerrainFilter narrows GroupRides to one terrain. An empty terrain shows all.
func (s *ClubService) SetTerrainFilter(userID string, terrain models.Terrain) error {
	if terrain != "" && !terrain.Valid() {
		return errors.New(errors.ErrCodeValidation, "Unknown terrain.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.views[userID]
	v.TerrainFilter = terrain
	s.views[userID] = v
	return nil
}

// View returns the user's current browsing selection.
func (s *ClubService) View(userID string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.views[userID]
}

// CreateRide posts a ride to groupID. The creator must belong to the group.
func (s *ClubService) CreateRide(userID, groupID string, input rules.RideInput) (models.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return models.Ride{}, err
	}
	if groupID == "" {
		return models.Ride{}, errors.ErrNoActiveGroupContext
	}
	if _, err := s.group(groupID); err != nil {
		return models.Ride{}, err
	}
	if !user.InGroup(groupID) {
		return models.Ride{}, errors.New(errors.ErrCodeForbidden, "Join this group before posting a ride.")
	}

	ride, user, err := rules.NewRide(input, groupID, user, keyspace{s})
	if err != nil {
		return models.Ride{}, err
	}
	if err := s.commit(models.Changeset{Users: []models.User{user}, Rides: []models.Ride{ride}}); err != nil {
		return models.Ride{}, err
	}

	logger.Info("Ride created",
		"ride_id", ride.ID,
		"group_id", groupID,
		"level", ride.Level,
		"min_points", ride.MinPoints)
	return ride, nil
}

// JoinRide takes a seat on a ride. Only members of the ride's group may join.
func (s *ClubService) JoinRide(userID, rideID string) (models.Ride, error) {
	return s.applyRide(userID, rideID, "joined", true, rules.JoinRide)
}

func (s *ClubService) LeaveRide(userID, rideID string) (models.Ride, error) {
	return s.applyRide(userID, rideID, "left", false, rules.LeaveRide)
}

// RequestRide records a request to join a ride the user lacks the XP for.
func (s *ClubService) RequestRide(userID, rideID string) (models.Ride, error) {
	return s.applyRide(userID, rideID, "requested", true, func(u models.User, r models.Ride) (models.User, models.Ride, error) {
		u, err := rules.RequestRide(u, r)
		return u, r, err
	})
}

func (s *ClubService) applyRide(userID, rideID, verb string, memberOnly bool, fn func(models.User, models.Ride) (models.User, models.Ride, error)) (models.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return models.Ride{}, err
	}
	ride, err := s.ride(rideID)
	if err != nil {
		return models.Ride{}, err
	}
	if memberOnly {
		if err := s.checkRideGroup(user, ride); err != nil {
			return ride, err
		}
	}

	newUser, newRide, err := fn(user, ride)
	if err != nil {
		return ride, err
	}

	cs := models.Changeset{Users: []models.User{newUser}}
	if newRide.CurrentRiders != ride.CurrentRiders {
		cs.Rides = []models.Ride{newRide}
	}
	if err := s.commit(cs); err != nil {
		return ride, err
	}

	logger.Info("Ride membership changed", "user_id", userID, "ride_id", rideID, "action", verb)
	return newRide, nil
}

// RideOffer returns the one action the user should be offered for a ride.
func (s *ClubService) RideOffer(userID, rideID string) (rules.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return rules.Offer{}, err
	}
	ride, err := s.ride(rideID)
	if err != nil {
		return rules.Offer{}, err
	}
	if !user.HasJoinedRide(ride.ID) {
		if err := s.checkRideGroup(user, ride); errors.Is(err, errors.ErrNotGroupMember) {
			return rules.Offer{Action: rules.ActionNone, Label: "Join Group First", Hint: errors.MessageOf(err)}, nil
		} else if err != nil {
			return rules.Offer{}, err
		}
	}
	return rules.OfferFor(user, ride), nil
}

// checkRideGroup refuses riders outside the ride's group. Private groups
// report themselves as private so their rides stay invite-only.
func (s *ClubService) checkRideGroup(user models.User, ride models.Ride) error {
	if user.InGroup(ride.GroupID) {
		return nil
	}
	group, err := s.group(ride.GroupID)
	if err != nil {
		return err
	}
	if group.IsPrivate {
		return errors.ErrPrivateGroup
	}
	return errors.ErrNotGroupMember
}

// ApproveRequest admits a rider whose request is pending. Only the admin of
// the ride's group may decide.
func (s *ClubService) ApproveRequest(adminID, riderID, rideID string) (models.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rider, ride, err := s.requestContext(adminID, riderID, rideID)
	if err != nil {
		return models.Ride{}, err
	}

	rider, ride, err = rules.ApproveRequest(rider, ride)
	if err != nil {
		return models.Ride{}, err
	}
	if err := s.commit(models.Changeset{Users: []models.User{rider}, Rides: []models.Ride{ride}}); err != nil {
		return models.Ride{}, err
	}

	logger.Info("Ride request approved", "admin_id", adminID, "user_id", riderID, "ride_id", rideID)
	return ride, nil
}

func (s *ClubService) DeclineRequest(adminID, riderID, rideID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rider, ride, err := s.requestContext(adminID, riderID, rideID)
	if err != nil {
		return err
	}

	rider, err = rules.DeclineRequest(rider, ride)
	if err != nil {
		return err
	}
	if err := s.commit(models.Changeset{Users: []models.User{rider}}); err != nil {
		return err
	}

	logger.Info("Ride request declined", "admin_id", adminID, "user_id", riderID, "ride_id", rideID)
	return nil
}

func (s *ClubService) requestContext(adminID, riderID, rideID string) (models.User, models.Ride, error) {
	ride, err := s.ride(rideID)
	if err != nil {
		return models.User{}, models.Ride{}, err
	}
	group, err := s.group(ride.GroupID)
	if err != nil {
		return models.User{}, models.Ride{}, err
	}
	if group.AdminID != adminID {
		return models.User{}, models.Ride{}, errors.ErrForbidden
	}
	rider, err := s.user(riderID)
	if err != nil {
		return models.User{}, models.Ride{}, err
	}
	return rider, ride, nil
}

// AwardPoints credits (or debits) XP from an external source such as a
// completed ride. Eligibility is recomputed on the next read.
func (s *ClubService) AwardPoints(userID string, delta int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.user(userID)
	if err != nil {
		return models.User{}, err
	}

	user = rules.AwardPoints(user, delta)
	if err := s.commit(models.Changeset{Users: []models.User{user}}); err != nil {
		return models.User{}, err
	}

	logger.Info("Points awarded", "user_id", userID, "delta", delta, "points", user.Points)
	return user.Clone(), nil
}

// commit persists cs and then applies it to memory. Nothing changes in memory
// when persisting fails.
func (s *ClubService) commit(cs models.Changeset) error {
	if cs.Empty() {
		return nil
	}
	if s.persister != nil {
		if err := s.persister.Commit(cs); err != nil {
			logger.Error("Failed to persist changes", "error", err)
			return errors.Wrap(err, errors.ErrCodeInternalError, "Something went wrong, please try again.")
		}
	}
	for _, u := range cs.Users {
		s.putUser(u)
	}
	for _, g := range cs.Groups {
		s.putGroup(g)
	}
	for _, r := range cs.Rides {
		s.putRide(r)
	}
	return nil
}

func (s *ClubService) putUser(u models.User) {
	s.users[u.ID] = u.Clone()
	s.byTelegram[u.TelegramID] = u.ID
}

func (s *ClubService) putGroup(g models.Group) {
	if _, ok := s.groups[g.ID]; !ok {
		s.groupOrder = append(s.groupOrder, g.ID)
	}
	s.groups[g.ID] = g
}

func (s *ClubService) putRide(r models.Ride) {
	if _, ok := s.rides[r.ID]; !ok {
		s.rideOrder = append(s.rideOrder, r.ID)
	}
	s.rides[r.ID] = r
}

func (s *ClubService) user(id string) (models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return models.User{}, errors.New(errors.ErrCodeNotFound, "Rider not found. Send /start first.")
	}
	return u.Clone(), nil
}

func (s *ClubService) group(id string) (models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return models.Group{}, errors.New(errors.ErrCodeNotFound, "Group not found.")
	}
	return g, nil
}

func (s *ClubService) ride(id string) (models.Ride, error) {
	r, ok := s.rides[id]
	if !ok {
		return models.Ride{}, errors.New(errors.ErrCodeNotFound, "Ride not found.")
	}
	return r, nil
}

func (s *ClubService) orderedGroups() []models.Group {
	out := make([]models.Group, 0, len(s.groupOrder))
	for _, id := range s.groupOrder {
		out = append(out, s.groups[id])
	}
	return out
}

func (s *ClubService) orderedRides() []models.Ride {
	out := make([]models.Ride, 0, len(s.rideOrder))
	for _, id := range s.rideOrder {
		out = append(out, s.rides[id])
	}
	return out
}

// keyspace exposes the service's identifiers to the rules. Callers hold s.mu.
type keyspace struct{ s *ClubService }

func (k keyspace) IDTaken(id string) bool {
	if _, ok := k.s.users[id]; ok {
		return true
	}
	if _, ok := k.s.groups[id]; ok {
		return true
	}
	_, ok := k.s.rides[id]
	return ok
}

func (k keyspace) CodeTaken(code string) bool {
	return rules.FindGroupByCode(k.s.orderedGroups(), code) >= 0
}
