package models

// UserRole константы ролей аккаунтов
const (
	UserRoleMember = "member"
	UserRoleAdmin  = "admin"
)

// ValidUserRoles список валидных ролей аккаунтов
var ValidUserRoles = map[string]struct{}{
	UserRoleMember: {},
	UserRoleAdmin:  {},
}
