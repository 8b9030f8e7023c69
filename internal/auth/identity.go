package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Role discriminates the two user classes. It is resolved exactly once,
// when the bearer token is parsed; nothing downstream inspects token
// subjects again.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

var ErrInvalidSubject = errors.New("invalid token subject")

// Identity is the authenticated caller: a doctor or a patient plus its id.
type Identity struct {
	Role Role
	ID   int64
}

// Subject encodes the identity as the wire-format token subject,
// a one-letter class discriminator followed by the numeric id ("D12", "P7").
func (i Identity) Subject() string {
	switch i.Role {
	case RoleDoctor:
		return fmt.Sprintf("D%d", i.ID)
	case RolePatient:
		return fmt.Sprintf("P%d", i.ID)
	}
	return ""
}

// ParseSubject decodes a token subject back into an Identity.
func ParseSubject(sub string) (Identity, error) {
	if len(sub) < 2 {
		return Identity{}, ErrInvalidSubject
	}

	var role Role
	switch {
	case strings.HasPrefix(sub, "D"):
		role = RoleDoctor
	case strings.HasPrefix(sub, "P"):
		role = RolePatient
	default:
		return Identity{}, ErrInvalidSubject
	}

	id, err := strconv.ParseInt(sub[1:], 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, ErrInvalidSubject
	}

	return Identity{Role: role, ID: id}, nil
}
