package models

import "errors"

// Role is the closed set of identity categories that gate feature access.
type Role string

const (
	RoleCandidate     Role = "candidate"
	RoleMentor        Role = "mentor"
	RoleHiringManager Role = "hiring_manager"
	RoleRecruiter     Role = "recruiter"
	RoleAdmin         Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

var allRoles = []Role{RoleCandidate, RoleMentor, RoleHiringManager, RoleRecruiter, RoleAdmin}

// ParseRole accepts only the exact members of the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	for _, known := range allRoles {
		if r == known {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// RequiresInvitation reports whether self-service registration is closed for
// the role without a signup link.
func (r Role) RequiresInvitation() bool {
	return r != RoleCandidate
}

func (r Role) String() string { return string(r) }

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r), nil
}

// AllRoles returns a copy of the closed set.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}
