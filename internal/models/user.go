package models

import "time"

// User describes a platform account. An account is pending until the invite is
// accepted: pending users carry no password hash and no first or last name.
type User struct {
	BaseModel

	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Password holds the bcrypt hash. Empty means the invite has not been
	// accepted yet.
	Password string `json:"-"`

	RoleID string `gorm:"type:uuid;index" json:"-"`
	Role   *Role  `json:"role,omitempty"`
}

// IsPending reports whether the account still awaits invite acceptance.
func (u *User) IsPending() bool {
	return u.Password == ""
}

// PublicUser is the sanitized projection of a User returned by every endpoint.
type PublicUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	IsPending bool       `json:"is_pending"`
	Role      *Role      `json:"role,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Public strips the password hash and other internal fields. All user data
// leaving the API must pass through this projection.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsPending: u.IsPending(),
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PublicUsers applies Public to a slice.
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, len(users))
	for i := range users {
		out[i] = users[i].Public()
	}
	return out
}
