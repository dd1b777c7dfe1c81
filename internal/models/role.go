package models

import (
	"errors"
	"strings"
)

// Role is a user's access role.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleResponsibleParty Role = "responsible_party"
	RoleViewer           Role = "viewer"
)

// ErrInvalidRole is returned by ParseRole for values outside the enumerated set.
var ErrInvalidRole = errors.New("role must be one of admin, responsible_party, viewer")

// Roles lists every role in declaration order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleResponsibleParty, RoleViewer}
}

// ParseRole converts request input into a Role. The legacy label
// "penanggung_jawab" is accepted as responsible_party.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "responsible_party", "penanggung_jawab":
		return RoleResponsibleParty, nil
	case "viewer":
		return RoleViewer, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleResponsibleParty, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
