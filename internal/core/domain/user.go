package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role is a capability tag carried by a user. Roles are not ordered: access
// checks are set membership, never "at least".
type Role uint8

// Numeric values match the legacy role ids stored by the first version of the
// marketplace (1 admin, 2 teacher, 3 user).
const (
	RoleAdmin Role = iota + 1
	RoleTeacher
	RoleUser
)

var roleNames = map[Role]string{
	RoleAdmin:   "ADMIN",
	RoleTeacher: "TEACHER",
	RoleUser:    "USER",
}

// AllRoles lists every known role in id order.
var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleUser}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole accepts a role name (case-insensitive) or its legacy numeric id.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		r := Role(n)
		if n > 0 && n < 256 && r.Valid() {
			return r, nil
		}
		return 0, fmt.Errorf("%w: unknown role id %d", ErrInvalidRoles, n)
	}
	for r, name := range roleNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidRoles, s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: cannot encode role %d", ErrInvalidRoles, uint8(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if strings.HasPrefix(raw, `"`) {
		unq, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRoles, err)
		}
		raw = unq
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is a finite set of roles stored as a bitmask.
type RoleSet uint8

// NewRoleSet builds a set from roles; invalid roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

// ParseRoleSet builds a set from role names or numeric ids. Any unknown entry
// fails the whole parse.
func ParseRoleSet(values []string) (RoleSet, error) {
	var s RoleSet
	for _, v := range values {
		r, err := ParseRole(v)
		if err != nil {
			return 0, err
		}
		s = s.With(r)
	}
	return s, nil
}

func (s RoleSet) With(r Role) RoleSet {
	if !r.Valid() {
		return s
	}
	return s | 1<<r
}

func (s RoleSet) Has(r Role) bool {
	return r.Valid() && s&(1<<r) != 0
}

// Intersects reports whether the two sets share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	return s&other != 0
}

func (s RoleSet) IsEmpty() bool {
	return s == 0
}

// Roles returns the members in id order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(AllRoles))
	for _, r := range AllRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Strings returns the member names in id order.
func (s RoleSet) Strings() []string {
	roles := s.Roles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.String()
	}
	return out
}

func (s RoleSet) String() string {
	return "[" + strings.Join(s.Strings(), ",") + "]"
}

func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var items []Role
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewRoleSet(items...)
	return nil
}

// User is an account in the credential store.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        RoleSet   `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin is a convenience used by ownership checks in the services.
func (u *User) IsAdmin() bool {
	return u != nil && u.Roles.Has(RoleAdmin)
}
