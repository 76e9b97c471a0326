package services

import (
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/pkg/errors"
)

type recordingPersister struct {
	commits []models.Changeset
	fail    error
}

func (p *recordingPersister) Commit(cs models.Changeset) error {
	if p.fail != nil {
		return p.fail
	}
	p.commits = append(p.commits, cs)
	return nil
}

func newDemoService(t *testing.T) (*ClubService, *recordingPersister) {
	t.Helper()
	p := &recordingPersister{}
	s := NewClubService(Options{Persister: p})
	s.Load(nil, models.DemoGroups(), models.DemoRides())
	return s, p
}

func login(t *testing.T, s *ClubService, tgID int64, name string) models.User {
	t.Helper()
	u, _, err := s.Login(tgID, name)
	if err != nil {
		t.Fatalf("Login(%d) error = %v", tgID, err)
	}
	return u
}

func rideInput(level models.Level, maxRiders int) rules.RideInput {
	return rules.RideInput{
		Title:      "Test Ride",
		Date:       "2024-06-01",
		Time:       "08:00",
		Distance:   100,
		Elevation:  1000,
		Level:      level,
		Terrain:    models.TerrainHighway,
		MaxRiders:  maxRiders,
		LeaderName: "Leader",
	}
}

func TestLogin_EnrollsIntoDefaultGroup(t *testing.T) {
	s, p := newDemoService(t)

	user, created, err := s.Login(1001, "Alex")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !created {
		t.Error("Login() created = false for a new rider")
	}
	if user.Points != 0 {
		t.Errorf("Points = %d, want 0", user.Points)
	}
	if user.AvatarURL != "https://ui-avatars.com/api/?name=Alex&background=0D8ABC&color=fff" {
		t.Errorf("AvatarURL = %q", user.AvatarURL)
	}

	d, err := s.Dashboard(user.ID)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if len(d.YourGroups) != 1 || d.YourGroups[0].Code != "COFFEE" {
		t.Fatalf("YourGroups = %+v, want only the COFFEE group", d.YourGroups)
	}
	if d.YourGroups[0].MemberCount != 351 {
		t.Errorf("default group MemberCount = %d, want 351", d.YourGroups[0].MemberCount)
	}
	if len(d.PublicGroups) != 1 || d.PublicGroups[0].ID != "g1" {
		t.Errorf("PublicGroups = %+v, want only g1", d.PublicGroups)
	}
	if len(p.commits) != 1 || len(p.commits[0].Users) != 1 || len(p.commits[0].Groups) != 1 {
		t.Errorf("commits = %+v, want one user and one group", p.commits)
	}

	again, created, err := s.Login(1001, "Alex")
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if created || again.ID != user.ID {
		t.Errorf("second Login() = (%q, %v), want (%q, false)", again.ID, created, user.ID)
	}
	g, _ := s.Group("g3")
	if g.MemberCount != 351 {
		t.Errorf("MemberCount after repeat login = %d, want 351", g.MemberCount)
	}
}

func TestLogin_MissingDefaultGroup(t *testing.T) {
	s := NewClubService(Options{DefaultGroupCode: "nosuch"})
	s.Load(nil, models.DemoGroups(), nil)

	user := login(t, s, 1, "Alex")
	if len(user.JoinedGroups) != 0 {
		t.Errorf("JoinedGroups = %v, want none", user.JoinedGroups)
	}
}

func TestJoinPublicGroup_AddsToYourGroups(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")

	g, err := s.JoinPublicGroup(user.ID, "g1")
	if err != nil {
		t.Fatalf("JoinPublicGroup() error = %v", err)
	}
	if g.MemberCount != 143 {
		t.Errorf("MemberCount = %d, want 143", g.MemberCount)
	}

	d, _ := s.Dashboard(user.ID)
	if len(d.YourGroups) != 2 {
		t.Errorf("YourGroups = %d entries, want 2", len(d.YourGroups))
	}

	g, err = s.JoinPublicGroup(user.ID, "g1")
	if err != nil {
		t.Fatalf("repeat JoinPublicGroup() error = %v", err)
	}
	if g.MemberCount != 143 {
		t.Errorf("MemberCount after repeat join = %d, want 143", g.MemberCount)
	}

	if _, err := s.JoinPublicGroup(user.ID, "g2"); !stderrors.Is(err, errors.ErrPrivateGroup) {
		t.Errorf("JoinPublicGroup(private) error = %v, want %v", err, errors.ErrPrivateGroup)
	}
}

func TestJoinGroupByCode(t *testing.T) {
	s, p := newDemoService(t)
	user := login(t, s, 1, "Alex")
	commitsAfterLogin := len(p.commits)

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "Unknown code", code: "ZZZZZZ", wantErr: errors.ErrInvalidCode},
		{name: "Already member", code: "coffee", wantErr: errors.ErrAlreadyMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.JoinGroupByCode(user.ID, tt.code); !stderrors.Is(err, tt.wantErr) {
				t.Errorf("JoinGroupByCode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if len(p.commits) != commitsAfterLogin {
		t.Errorf("failed joins persisted %d changesets", len(p.commits)-commitsAfterLogin)
	}

	g, err := s.JoinGroupByCode(user.ID, " night1 ")
	if err != nil {
		t.Fatalf("JoinGroupByCode(private) error = %v", err)
	}
	if g.ID != "g2" || g.MemberCount != 25 {
		t.Errorf("group = %s with %d members, want g2 with 25", g.ID, g.MemberCount)
	}
	active, ok := s.ActiveGroup(user.ID)
	if !ok || active.ID != "g2" {
		t.Errorf("ActiveGroup() = %q, %v, want g2", active.ID, ok)
	}
}

func TestCreateGroup(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")

	g, err := s.CreateGroup(user.ID, rules.GroupInput{Name: "Desert Foxes", IsPrivate: true})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if g.AdminID != user.ID || g.MemberCount != 1 {
		t.Errorf("group = %+v", g)
	}

	other := login(t, s, 2, "Sam")
	joined, err := s.JoinGroupByCode(other.ID, g.Code)
	if err != nil {
		t.Fatalf("JoinGroupByCode(new code) error = %v", err)
	}
	if joined.MemberCount != 2 {
		t.Errorf("MemberCount = %d, want 2", joined.MemberCount)
	}
}

func TestCreateGroup_CodesAreUnique(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")

	seen := map[string]bool{"CANYON": true, "NIGHT1": true, "COFFEE": true}
	for i := 0; i < 50; i++ {
		g, err := s.CreateGroup(user.ID, rules.GroupInput{Name: fmt.Sprintf("Group %d", i)})
		if err != nil {
			t.Fatalf("CreateGroup() error = %v", err)
		}
		if seen[g.Code] {
			t.Fatalf("duplicate join code %q", g.Code)
		}
		seen[g.Code] = true
	}
}

func TestOpenGroup(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")

	if _, err := s.OpenGroup(user.ID, "g1"); err != nil {
		t.Errorf("OpenGroup(public preview) error = %v", err)
	}
	if _, err := s.OpenGroup(user.ID, "g2"); !stderrors.Is(err, errors.ErrPrivateGroup) {
		t.Errorf("OpenGroup(private) error = %v, want %v", err, errors.ErrPrivateGroup)
	}
	if _, err := s.OpenGroup(user.ID, "nope"); errors.CodeOf(err) != errors.ErrCodeNotFound {
		t.Errorf("OpenGroup(missing) error = %v, want not found", err)
	}

	s.CloseGroup(user.ID)
	if _, ok := s.ActiveGroup(user.ID); ok {
		t.Error("ActiveGroup() still set after CloseGroup()")
	}
}

func TestGroupRides_Filters(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")

	if _, err := s.GroupRides(user.ID); !stderrors.Is(err, errors.ErrNoActiveGroupContext) {
		t.Fatalf("GroupRides() without group error = %v", err)
	}
	if _, err := s.OpenGroup(user.ID, "g1"); err != nil {
		t.Fatalf("OpenGroup() error = %v", err)
	}

	tests := []struct {
		name    string
		level   models.Level
		terrain models.Terrain
		want    int
	}{
		{name: "No filters", want: 1},
		{name: "Matching level", level: models.LevelA, want: 1},
		{name: "Other level", level: models.LevelC, want: 0},
		{name: "Matching terrain", terrain: models.TerrainMountains, want: 1},
		{name: "Other terrain", terrain: models.TerrainBeach, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetLevelFilter(user.ID, tt.level); err != nil {
				t.Fatalf("SetLevelFilter() error = %v", err)
			}
			if err := s.SetTerrainFilter(user.ID, tt.terrain); err != nil {
				t.Fatalf("SetTerrainFilter() error = %v", err)
			}
			rides, err := s.GroupRides(user.ID)
			if err != nil {
				t.Fatalf("GroupRides() error = %v", err)
			}
			if len(rides) != tt.want {
				t.Errorf("GroupRides() = %d rides, want %d", len(rides), tt.want)
			}
		})
	}

	if err := s.SetLevelFilter(user.ID, "X"); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("SetLevelFilter(X) error = %v, want validation error", err)
	}
}

func TestCreateRide(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")

	if _, err := s.CreateRide(user.ID, "", rideInput(models.LevelA, 10)); !stderrors.Is(err, errors.ErrNoActiveGroupContext) {
		t.Errorf("CreateRide() without group error = %v, want %v", err, errors.ErrNoActiveGroupContext)
	}
	if _, err := s.CreateRide(user.ID, "g1", rideInput(models.LevelA, 10)); errors.CodeOf(err) != errors.ErrCodeForbidden {
		t.Errorf("CreateRide() in foreign group error = %v, want forbidden", err)
	}

	ride, err := s.CreateRide(user.ID, "g3", rideInput(models.LevelA, 10))
	if err != nil {
		t.Fatalf("CreateRide() error = %v", err)
	}
	if ride.MinPoints != 2000 || ride.CurrentRiders != 1 {
		t.Errorf("ride MinPoints=%d CurrentRiders=%d, want 2000 and 1", ride.MinPoints, ride.CurrentRiders)
	}
	u, _ := s.User(user.ID)
	if !u.HasJoinedRide(ride.ID) {
		t.Errorf("creator JoinedRides = %v", u.JoinedRides)
	}

	roster, err := s.RideRoster(ride.ID)
	if err != nil || len(roster) != 1 || roster[0].ID != user.ID {
		t.Errorf("RideRoster() = %v, %v", roster, err)
	}
}

func TestFullRide_NoJoinOffered(t *testing.T) {
	s, p := newDemoService(t)
	leader := login(t, s, 1, "Leader")
	ride, err := s.CreateRide(leader.ID, "g3", rideInput(models.LevelD, 1))
	if err != nil {
		t.Fatalf("CreateRide() error = %v", err)
	}

	rider := login(t, s, 2, "Rider")
	offer, err := s.RideOffer(rider.ID, ride.ID)
	if err != nil {
		t.Fatalf("RideOffer() error = %v", err)
	}
	if offer.Action != rules.ActionNone || offer.Label != "Ride Full" {
		t.Errorf("RideOffer() = %+v, want no action labelled Ride Full", offer)
	}

	commits := len(p.commits)
	if _, err := s.JoinRide(rider.ID, ride.ID); !stderrors.Is(err, errors.ErrRideFull) {
		t.Errorf("JoinRide() error = %v, want %v", err, errors.ErrRideFull)
	}
	got, _ := s.Ride(ride.ID)
	if got.CurrentRiders != 1 {
		t.Errorf("CurrentRiders = %d, want 1", got.CurrentRiders)
	}
	if len(p.commits) != commits {
		t.Error("rejected join was persisted")
	}
}

func TestJoinLeaveRide(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")

	before, _ := s.Ride("r2")
	joined, err := s.JoinRide(user.ID, "r2")
	if !stderrors.Is(err, errors.ErrNotEligible) {
		t.Fatalf("JoinRide() with 0 XP error = %v, want %v", err, errors.ErrNotEligible)
	}
	if joined.CurrentRiders != before.CurrentRiders {
		t.Errorf("CurrentRiders changed on rejected join")
	}

	if _, err := s.AwardPoints(user.ID, 800); err != nil {
		t.Fatalf("AwardPoints() error = %v", err)
	}
	joined, err = s.JoinRide(user.ID, "r2")
	if err != nil {
		t.Fatalf("JoinRide() error = %v", err)
	}
	if joined.CurrentRiders != before.CurrentRiders+1 {
		t.Errorf("CurrentRiders = %d, want %d", joined.CurrentRiders, before.CurrentRiders+1)
	}

	left, err := s.LeaveRide(user.ID, "r2")
	if err != nil {
		t.Fatalf("LeaveRide() error = %v", err)
	}
	if left.CurrentRiders != before.CurrentRiders {
		t.Errorf("CurrentRiders after round trip = %d, want %d", left.CurrentRiders, before.CurrentRiders)
	}

	if _, err := s.LeaveRide(user.ID, "r2"); !stderrors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("second LeaveRide() error = %v, want %v", err, errors.ErrInvalidTransition)
	}
}

func TestRequestApproveFlow(t *testing.T) {
	s, _ := newDemoService(t)
	admin := login(t, s, 1, "Admin")
	group, err := s.CreateGroup(admin.ID, rules.GroupInput{Name: "Track Days", IsPrivate: true})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	ride, err := s.CreateRide(admin.ID, group.ID, rideInput(models.LevelA, 5))
	if err != nil {
		t.Fatalf("CreateRide() error = %v", err)
	}

	rider := login(t, s, 2, "Rookie")
	if _, err := s.JoinGroupByCode(rider.ID, group.Code); err != nil {
		t.Fatalf("JoinGroupByCode() error = %v", err)
	}
	if _, err := s.RequestRide(rider.ID, ride.ID); err != nil {
		t.Fatalf("RequestRide() error = %v", err)
	}
	if _, err := s.RequestRide(rider.ID, ride.ID); !stderrors.Is(err, errors.ErrAlreadyRequested) {
		t.Errorf("repeat RequestRide() error = %v, want %v", err, errors.ErrAlreadyRequested)
	}

	offer, _ := s.RideOffer(rider.ID, ride.ID)
	if offer.Label != "Request Pending" {
		t.Errorf("RideOffer().Label = %q, want %q", offer.Label, "Request Pending")
	}

	pending := s.PendingRequests(admin.ID)
	if len(pending) != 1 || pending[0].Rider.ID != rider.ID || pending[0].Ride.ID != ride.ID {
		t.Fatalf("PendingRequests() = %+v", pending)
	}
	if got := s.PendingRequests(rider.ID); len(got) != 0 {
		t.Errorf("PendingRequests(non-admin) = %d entries, want 0", len(got))
	}

	if _, err := s.ApproveRequest(rider.ID, rider.ID, ride.ID); !stderrors.Is(err, errors.ErrForbidden) {
		t.Errorf("ApproveRequest() by non-admin error = %v, want %v", err, errors.ErrForbidden)
	}

	approved, err := s.ApproveRequest(admin.ID, rider.ID, ride.ID)
	if err != nil {
		t.Fatalf("ApproveRequest() error = %v", err)
	}
	if approved.CurrentRiders != 2 {
		t.Errorf("CurrentRiders = %d, want 2", approved.CurrentRiders)
	}
	u, _ := s.User(rider.ID)
	if !u.HasJoinedRide(ride.ID) || u.HasRequestedRide(ride.ID) {
		t.Errorf("rider joined=%v requested=%v", u.JoinedRides, u.RequestedRides)
	}
	if len(s.PendingRequests(admin.ID)) != 0 {
		t.Error("request still pending after approval")
	}
}

func TestDeclineRequest(t *testing.T) {
	s, _ := newDemoService(t)
	admin := login(t, s, 1, "Admin")
	ride, err := s.CreateRide(admin.ID, "g3", rideInput(models.LevelB, 5))
	if err != nil {
		t.Fatalf("CreateRide() error = %v", err)
	}
	group, _ := s.Group("g3")
	if group.AdminID == admin.ID {
		t.Fatal("demo group unexpectedly administered by test user")
	}

	rider := login(t, s, 2, "Rookie")
	if _, err := s.RequestRide(rider.ID, ride.ID); err != nil {
		t.Fatalf("RequestRide() error = %v", err)
	}

	if err := s.DeclineRequest(admin.ID, rider.ID, ride.ID); !stderrors.Is(err, errors.ErrForbidden) {
		t.Errorf("DeclineRequest() by ride creator who is not group admin error = %v, want %v", err, errors.ErrForbidden)
	}
	if err := s.DeclineRequest("admin3", rider.ID, ride.ID); err != nil {
		t.Fatalf("DeclineRequest() error = %v", err)
	}
	u, _ := s.User(rider.ID)
	if u.HasRequestedRide(ride.ID) {
		t.Errorf("RequestedRides = %v after decline", u.RequestedRides)
	}
}

func TestAwardPoints_UnlocksJoin(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")
	if _, err := s.JoinPublicGroup(user.ID, "g1"); err != nil {
		t.Fatalf("JoinPublicGroup() error = %v", err)
	}

	offer, _ := s.RideOffer(user.ID, "r1")
	if offer.Action != rules.ActionRequest {
		t.Fatalf("RideOffer() = %s, want %s", offer.Action, rules.ActionRequest)
	}
	if _, err := s.RequestRide(user.ID, "r1"); err != nil {
		t.Fatalf("RequestRide() error = %v", err)
	}

	if _, err := s.AwardPoints(user.ID, 2000); err != nil {
		t.Fatalf("AwardPoints() error = %v", err)
	}
	offer, _ = s.RideOffer(user.ID, "r1")
	if offer.Action != rules.ActionJoin {
		t.Errorf("RideOffer() after award = %s, want %s", offer.Action, rules.ActionJoin)
	}
}

func TestRideActions_RequireGroupMembership(t *testing.T) {
	s, p := newDemoService(t)
	user := login(t, s, 1, "Alex")
	if _, err := s.AwardPoints(user.ID, 2500); err != nil {
		t.Fatalf("AwardPoints() error = %v", err)
	}

	tests := []struct {
		name   string
		rideID string
		want   error
	}{
		{"private group ride", "r3", errors.ErrPrivateGroup},
		{"public group ride", "r1", errors.ErrNotGroupMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := s.Ride(tt.rideID)
			commits := len(p.commits)

			if _, err := s.JoinRide(user.ID, tt.rideID); !stderrors.Is(err, tt.want) {
				t.Errorf("JoinRide() error = %v, want %v", err, tt.want)
			}
			if _, err := s.RequestRide(user.ID, tt.rideID); !stderrors.Is(err, tt.want) {
				t.Errorf("RequestRide() error = %v, want %v", err, tt.want)
			}

			after, _ := s.Ride(tt.rideID)
			if after.CurrentRiders != before.CurrentRiders {
				t.Errorf("CurrentRiders = %d, want %d", after.CurrentRiders, before.CurrentRiders)
			}
			if len(p.commits) != commits {
				t.Error("refused ride action was persisted")
			}
		})
	}

	if _, err := s.RideOffer(user.ID, "r3"); !stderrors.Is(err, errors.ErrPrivateGroup) {
		t.Errorf("RideOffer() on private ride error = %v, want %v", err, errors.ErrPrivateGroup)
	}
	offer, err := s.RideOffer(user.ID, "r1")
	if err != nil {
		t.Fatalf("RideOffer() error = %v", err)
	}
	if offer.Action != rules.ActionNone {
		t.Errorf("RideOffer() for non-member = %s, want %s", offer.Action, rules.ActionNone)
	}

	if _, err := s.JoinPublicGroup(user.ID, "g1"); err != nil {
		t.Fatalf("JoinPublicGroup() error = %v", err)
	}
	joined, err := s.JoinRide(user.ID, "r1")
	if err != nil {
		t.Fatalf("JoinRide() after joining group error = %v", err)
	}
	if joined.CurrentRiders != 9 {
		t.Errorf("CurrentRiders = %d, want 9", joined.CurrentRiders)
	}
}

func TestEnsureDefaultGroup_FromEmptyState(t *testing.T) {
	p := &recordingPersister{}
	s := NewClubService(Options{Persister: p, OwnerTelegramID: 1})

	group, err := s.EnsureDefaultGroup()
	if err != nil {
		t.Fatalf("EnsureDefaultGroup() error = %v", err)
	}
	if group.Code != DefaultGroupCode || group.IsPrivate || group.AdminID != "" {
		t.Errorf("default group = %+v", group)
	}
	again, err := s.EnsureDefaultGroup()
	if err != nil || again.ID != group.ID {
		t.Errorf("second EnsureDefaultGroup() = %s, %v, want %s", again.ID, err, group.ID)
	}
	if len(p.commits) != 1 {
		t.Errorf("commits = %d, want 1", len(p.commits))
	}

	rider := login(t, s, 2, "Rider")
	if !rider.InGroup(group.ID) {
		t.Errorf("JoinedGroups = %v, want %s", rider.JoinedGroups, group.ID)
	}
	d, _ := s.Dashboard(rider.ID)
	if len(d.YourGroups) != 1 || d.YourGroups[0].ID != group.ID {
		t.Errorf("YourGroups = %+v, want the default group", d.YourGroups)
	}

	owner := login(t, s, 1, "Owner")
	got, _ := s.Group(group.ID)
	if got.AdminID != owner.ID {
		t.Errorf("AdminID = %q, want owner %q", got.AdminID, owner.ID)
	}
	if got.MemberCount != 2 {
		t.Errorf("MemberCount = %d, want 2", got.MemberCount)
	}

	login(t, s, 3, "Other")
	login(t, s, 1, "Owner")
	got, _ = s.Group(group.ID)
	if got.AdminID != owner.ID {
		t.Errorf("AdminID = %q after another login, want %q", got.AdminID, owner.ID)
	}
}

func TestEnsureDefaultGroup_KeepsExisting(t *testing.T) {
	s, p := newDemoService(t)

	group, err := s.EnsureDefaultGroup()
	if err != nil {
		t.Fatalf("EnsureDefaultGroup() error = %v", err)
	}
	if group.ID != "g3" {
		t.Errorf("EnsureDefaultGroup() = %s, want g3", group.ID)
	}
	if len(p.commits) != 0 {
		t.Errorf("commits = %d, want 0", len(p.commits))
	}
}

func TestJoinGroupByCode_AlreadyMemberKeepsFilters(t *testing.T) {
	s, _ := newDemoService(t)
	user := login(t, s, 1, "Alex")

	if _, err := s.OpenGroup(user.ID, "g3"); err != nil {
		t.Fatalf("OpenGroup() error = %v", err)
	}
	if err := s.SetLevelFilter(user.ID, models.LevelC); err != nil {
		t.Fatalf("SetLevelFilter() error = %v", err)
	}
	if _, err := s.JoinGroupByCode(user.ID, "coffee"); !stderrors.Is(err, errors.ErrAlreadyMember) {
		t.Fatalf("JoinGroupByCode() error = %v, want %v", err, errors.ErrAlreadyMember)
	}

	v := s.View(user.ID)
	if v.ActiveGroupID != "g3" || v.LevelFilter != models.LevelC {
		t.Errorf("View() = %+v, want g3 with level C", v)
	}
}

func TestPersistFailure_LeavesStateUntouched(t *testing.T) {
	s, p := newDemoService(t)
	user := login(t, s, 1, "Alex")

	p.fail = stderrors.New("db down")
	if _, err := s.JoinPublicGroup(user.ID, "g1"); errors.CodeOf(err) != errors.ErrCodeInternalError {
		t.Fatalf("JoinPublicGroup() error = %v, want internal error", err)
	}

	g, _ := s.Group("g1")
	if g.MemberCount != 142 {
		t.Errorf("MemberCount = %d, want 142", g.MemberCount)
	}
	u, _ := s.User(user.ID)
	if u.InGroup("g1") {
		t.Error("membership recorded although persisting failed")
	}
}

func TestJoinRide_ConcurrentCapacity(t *testing.T) {
	s := NewClubService(Options{})
	s.Load(nil, models.DemoGroups(), nil)

	leader := login(t, s, 1, "Leader")
	ride, err := s.CreateRide(leader.ID, "g3", rideInput(models.LevelD, 5))
	if err != nil {
		t.Fatalf("CreateRide() error = %v", err)
	}

	var ids []string
	for i := 0; i < 20; i++ {
		ids = append(ids, login(t, s, int64(100+i), fmt.Sprintf("Rider %d", i)).ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = s.JoinRide(id, ride.ID)
		}(id)
	}
	wg.Wait()

	got, _ := s.Ride(ride.ID)
	if got.CurrentRiders != got.MaxRiders {
		t.Errorf("CurrentRiders = %d, want %d", got.CurrentRiders, got.MaxRiders)
	}
	roster, _ := s.RideRoster(ride.ID)
	if len(roster) != got.MaxRiders {
		t.Errorf("RideRoster() = %d riders, want %d", len(roster), got.MaxRiders)
	}
}
