package application

// Role identifies the access level of an authenticated user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// Valid reports whether the role is one of the known codes.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// The policy predicates below centralise the per-entity access rules so they
// can be tested independently of HTTP plumbing and SQL. Membership facts
// (managesOwner, ownsTeam) are resolved by the caller against the directory.

// CanListDayCloseValidations reports whether the actor may see pending day
// close validations at all. Managers see a filtered subset.
func CanListDayCloseValidations(actor Principal) bool {
	return actor.Role == RoleAdmin || actor.Role == RoleManager
}

// CanDecideDayClose reports whether the actor may decide a validation whose
// underlying closure belongs to a user the actor manages (managesOwner).
func CanDecideDayClose(actor Principal, managesOwner bool) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return managesOwner
	}
	return false
}

// CanCloseTeam reports whether the actor may close or preview the team.
func CanCloseTeam(actor Principal, ownsTeam bool) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return ownsTeam
	}
	return false
}

// CanDecideTeamClose reports whether the actor may decide team close
// validations. Only admins sit at the top of the approval chain.
func CanDecideTeamClose(actor Principal) bool {
	return actor.Role == RoleAdmin
}
