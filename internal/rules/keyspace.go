package rules

import (
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/utils"
)

// Keyspace reports which identifiers and join codes are already in use.
type Keyspace interface {
	IDTaken(id string) bool
	CodeTaken(code string) bool
}

const (
	groupIDPrefix = "g-"
	rideIDPrefix  = "r-"
	idLength      = 8
	codeLength    = 6
)

func newID(prefix string, ks Keyspace) (string, error) {
	id, err := utils.GenerateUnique(func() string {
		return prefix + utils.GenerateRandomID(idLength)
	}, ks.IDTaken)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to allocate identifier")
	}
	return id, nil
}

func newJoinCode(ks Keyspace) (string, error) {
	code, err := utils.GenerateUnique(func() string {
		return utils.GenerateJoinCode(codeLength)
	}, ks.CodeTaken)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to allocate join code")
	}
	return code, nil
}
