package ports

import "github.com/coursehub/marketplace/internal/core/domain"

// Caller identifies the authenticated principal of a request, as read from
// its token claims.
type Caller struct {
	UserID string
	Roles  domain.RoleSet
}

func (c Caller) IsAdmin() bool {
	return c.Roles.Has(domain.RoleAdmin)
}

// CanActFor reports whether the caller may touch resources owned by userID.
func (c Caller) CanActFor(userID string) bool {
	return c.IsAdmin() || (c.UserID != "" && c.UserID == userID)
}
