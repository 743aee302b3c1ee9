package enums

import "fmt"

// ActorRole is the platform capability carried in access tokens.
type ActorRole string

const (
	ActorRoleAdmin     ActorRole = "admin"
	ActorRoleOrganizer ActorRole = "organizer"
	ActorRoleInvestor  ActorRole = "investor"
	ActorRoleAttendee  ActorRole = "attendee"
	ActorRoleStaff     ActorRole = "staff"
	// ActorRoleSystem is used by background jobs; it is never minted into tokens.
	ActorRoleSystem ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleOrganizer,
	ActorRoleInvestor,
	ActorRoleAttendee,
	ActorRoleStaff,
	ActorRoleSystem,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
