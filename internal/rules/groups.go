package rules

import (
	"fmt"
	"strings"

	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/utils"
)

// GroupInput is what a rider supplies when creating a group
type GroupInput struct {
	Name        string
	Description string
	IsPrivate   bool
}

// FindGroupByCode returns the index of the group whose code equals the
// normalised candidate, or -1.
func FindGroupByCode(groups []models.Group, code string) int {
	code = utils.NormalizeCode(code)
	if code == "" {
		return -1
	}
	for i := range groups {
		if groups[i].Code == code {
			return i
		}
	}
	return -1
}

// JoinByCode adds the group matching code to the user's memberships. The code
// bypasses the private flag.
func JoinByCode(user models.User, groups []models.Group, code string) (models.User, models.Group, error) {
	idx := FindGroupByCode(groups, code)
	if idx < 0 {
		return user, models.Group{}, errors.ErrInvalidCode
	}
	group := groups[idx]
	if user.InGroup(group.ID) {
		return user, group, errors.ErrAlreadyMember
	}

	u, g := addMember(user, group)
	return u, g, nil
}

// JoinPublic joins an open group without a code. It returns changed=false
// when the user is already a member; that is not an error.
func JoinPublic(user models.User, group models.Group) (models.User, models.Group, bool, error) {
	if user.InGroup(group.ID) {
		return user, group, false, nil
	}
	if group.IsPrivate {
		return user, group, false, errors.ErrPrivateGroup
	}

	u, g := addMember(user, group)
	return u, g, true, nil
}

// NewGroup builds a group owned by creator, who becomes its first member.
func NewGroup(input GroupInput, creator models.User, ks Keyspace) (models.Group, models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Group{}, creator, errors.New(errors.ErrCodeValidation, "Group name is required.")
	}

	id, err := newID(groupIDPrefix, ks)
	if err != nil {
		return models.Group{}, creator, err
	}
	code, err := newJoinCode(ks)
	if err != nil {
		return models.Group{}, creator, err
	}

	group := models.Group{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/800/300", id),
		Code:        code,
		IsPrivate:   input.IsPrivate,
		MemberCount: 1,
		AdminID:     creator.ID,
	}

	u := creator.Clone()
	u.JoinedGroups = models.WithID(u.JoinedGroups, group.ID)
	return group, u, nil
}

// DefaultGroup builds the open group new riders are enrolled in. It starts
// with no members and no admin.
func DefaultGroup(name, code string, ks Keyspace) (models.Group, error) {
	code = utils.NormalizeCode(code)
	if code == "" {
		return models.Group{}, errors.New(errors.ErrCodeValidation, "Default group code is required.")
	}
	if ks.CodeTaken(code) {
		return models.Group{}, errors.New(errors.ErrCodeAlreadyExists, "Default group code is already in use.")
	}
	id, err := newID(groupIDPrefix, ks)
	if err != nil {
		return models.Group{}, err
	}
	return models.Group{
		ID:          id,
		Name:        name,
		Description: "Every rider starts here. Say hi and find your first ride.",
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/800/300", id),
		Code:        code,
	}, nil
}

// ClaimGroup makes user the admin of a group nobody administers, joining it
// first when needed. changed is false when the group already has an admin.
func ClaimGroup(user models.User, group models.Group) (models.User, models.Group, bool) {
	if group.AdminID != "" {
		return user, group, false
	}
	if !user.InGroup(group.ID) {
		user, group = addMember(user, group)
	}
	group.AdminID = user.ID
	return user, group, true
}

func addMember(user models.User, group models.Group) (models.User, models.Group) {
	u := user.Clone()
	u.JoinedGroups = models.WithID(u.JoinedGroups, group.ID)
	group.MemberCount++
	return u, group
}
