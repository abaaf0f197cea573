package models

// Role pairs a scope with a name, e.g. scope "global", name "member". Roles
// are seeded at startup and looked up at runtime, never created per request.
type Role struct {
	BaseModel

	Scope string `gorm:"not null;uniqueIndex:idx_roles_scope_name" json:"scope"`
	Name  string `gorm:"not null;uniqueIndex:idx_roles_scope_name" json:"name"`
}

// Well-known role identifiers.
const (
	RoleScopeGlobal = "global"
	RoleNameOwner   = "owner"
	RoleNameMember  = "member"
)
