package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Estados de usuario.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// Proveedores de identidad.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// User representa un usuario del sistema (personal de la farmacia).
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt; vacío para cuentas creadas vía OAuth
	Name         string
	Role         string // admin, staff
	Status       string // active, inactive
	Provider     string // local, google, facebook
	ProviderID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole valida el rol.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
