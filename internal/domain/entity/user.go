package entity

import "time"

// Nombres de rol conocidos. Admin y Staff existen una vez por tenant; SuperAdmin es global.
const (
	RoleAdmin      = "Admin"
	RoleStaff      = "Staff"
	RoleSuperAdmin = "SuperAdmin"
)

// Estados de usuario.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User identidad de acceso. Pertenece a un tenant o a ninguno (superusuario).
type User struct {
	ID                   string
	TenantID             *string
	Email                string
	PasswordHash         string // bcrypt hash, nunca plano en dominio después de persistir
	MustRotateCredential bool   // credencial inicial que el dueño debe cambiar
	Status               string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Role rol con clave (Name, TenantID); el mismo nombre puede existir una vez por tenant.
type Role struct {
	ID       string
	TenantID *string
	Name     string
}

// UserRole asignación de un rol a un usuario del mismo tenant.
type UserRole struct {
	UserID string
	RoleID string
}
