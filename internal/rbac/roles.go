package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdvertiser = "advertiser"
	RoleAnalyst    = "analyst" // read-only, across accounts
	RoleAdmin      = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// CanReadAll reports whether the role may read other users' campaigns and calls.
func CanReadAll(role string) bool { return role == RoleAdmin || role == RoleAnalyst }

func IsKnownRole(role string) bool {
	switch role {
	case RoleAdvertiser, RoleAnalyst, RoleAdmin:
		return true
	default:
		return false
	}
}
