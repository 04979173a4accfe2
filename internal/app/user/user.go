/*
Package user contains the identity records of the messaging backend.

It defines the User record and its global role, and the Directory that registers
users, tracks their login sessions and resolves a session to an identity.
*/
package user

// Role is the global permission level of a user.
type Role int

const (
	// RoleGlobalAdmin bypasses channel ownership checks while a channel member.
	// The first registered user receives it.
	RoleGlobalAdmin Role = 1

	// RoleMember is the default role.
	RoleMember Role = 2
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleGlobalAdmin || r == RoleMember
}

// User represents the identity information of a registered user.
type User struct {
	// ID is the sequential identity, starting at 0.
	ID int `json:"u_id"`

	Email     string `json:"email"`
	NameFirst string `json:"name_first"`
	NameLast  string `json:"name_last"`

	// Handle is the unique display handle, derived at registration and mutable later.
	Handle string `json:"handle_str"`

	// Role is serialized as the legacy permission id (1 admin, 2 member).
	Role Role `json:"permission_id"`
}

// IsGlobalAdmin reports whether u holds the global admin role.
func (u User) IsGlobalAdmin() bool {
	return u.Role == RoleGlobalAdmin
}

// Summary is the short member view used in channel details.
type Summary struct {
	ID        int    `json:"u_id"`
	NameFirst string `json:"name_first"`
	NameLast  string `json:"name_last"`
	Handle    string `json:"handle_str"`
}

// Summary returns the short view of u.
func (u User) Summary() Summary {
	return Summary{
		ID:        u.ID,
		NameFirst: u.NameFirst,
		NameLast:  u.NameLast,
		Handle:    u.Handle,
	}
}

// Session identifies one login of a user.
type Session struct {
	UserID    int
	SessionID string
}
