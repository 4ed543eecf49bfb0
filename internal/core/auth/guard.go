package auth

import "github.com/coursehub/marketplace/internal/core/domain"

// Decision is the outcome of an access check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize allows the caller when it holds at least one of the required
// roles. An empty requirement denies: openness has to be declared with a
// Policy, never inferred.
func Authorize(required, caller domain.RoleSet) Decision {
	if required.Intersects(caller) {
		return Allow
	}
	return Deny
}

// Policy is the access requirement attached to one route.
type Policy struct {
	// Public routes skip authentication entirely.
	Public bool
	// AnyAuthenticated admits every holder of a valid token.
	AnyAuthenticated bool
	// Roles is checked with Authorize when neither flag is set.
	Roles domain.RoleSet
}

func PublicPolicy() Policy        { return Policy{Public: true} }
func AuthenticatedPolicy() Policy { return Policy{AnyAuthenticated: true} }

// RequireRoles admits callers holding any of roles.
func RequireRoles(roles ...domain.Role) Policy {
	return Policy{Roles: domain.NewRoleSet(roles...)}
}

// Decide evaluates the policy for the caller. claims is nil for anonymous
// requests.
func (p Policy) Decide(claims *Claims) Decision {
	if p.Public {
		return Allow
	}
	if claims == nil {
		return Deny
	}
	if p.AnyAuthenticated {
		return Allow
	}
	return Authorize(p.Roles, claims.Roles)
}
