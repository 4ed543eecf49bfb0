package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coursehub/marketplace/internal/core/domain"
)

func TestAuthorize(t *testing.T) {
	set := domain.NewRoleSet
	cases := []struct {
		name     string
		required domain.RoleSet
		caller   domain.RoleSet
		want     Decision
	}{
		{"admin only, user caller", set(domain.RoleAdmin), set(domain.RoleUser), Deny},
		{"admin or teacher, teacher caller", set(domain.RoleAdmin, domain.RoleTeacher), set(domain.RoleTeacher), Allow},
		{"any one match suffices", set(domain.RoleTeacher), set(domain.RoleUser, domain.RoleTeacher), Allow},
		{"empty requirement denies", set(), set(domain.RoleUser), Deny},
		{"empty caller denies", set(domain.RoleUser), set(), Deny},
		{"admin is not implied", set(domain.RoleUser), set(domain.RoleAdmin), Deny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.required, tc.caller))
		})
	}
}

func TestPolicy_Decide(t *testing.T) {
	userClaims := &Claims{SubjectID: "1", Roles: domain.NewRoleSet(domain.RoleUser)}

	assert.Equal(t, Allow, PublicPolicy().Decide(nil))
	assert.Equal(t, Allow, PublicPolicy().Decide(userClaims))

	assert.Equal(t, Deny, AuthenticatedPolicy().Decide(nil))
	assert.Equal(t, Allow, AuthenticatedPolicy().Decide(userClaims))

	assert.Equal(t, Deny, RequireRoles(domain.RoleAdmin).Decide(userClaims))
	assert.Equal(t, Allow, RequireRoles(domain.RoleAdmin, domain.RoleUser).Decide(userClaims))
	assert.Equal(t, Deny, RequireRoles().Decide(userClaims))
	assert.Equal(t, Deny, Policy{}.Decide(userClaims))
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
}
