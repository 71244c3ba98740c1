package auth

import "strings"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
)

// Identity is the authenticated caller, resolved from a bearer token and
// passed explicitly into domain operations.
type Identity struct {
	UserID string
	Role   string
}

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleOrganizer):
		return RoleOrganizer
	case string(RoleAttendee):
		return RoleAttendee
	default:
		return RoleAttendee
	}
}

func HasRole(role string, allowed ...Role) bool {
	if len(allowed) == 0 {
		return false
	}
	current := NormalizeRole(role)
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}
