package dto

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse salida de un usuario (sin credencial).
type UserResponse struct {
	ID                   string   `json:"id"`
	TenantID             string   `json:"tenant_id,omitempty"`
	Email                string   `json:"email"`
	Roles                []string `json:"roles"`
	Superuser            bool     `json:"superuser"`
	MustRotateCredential bool     `json:"must_rotate_credential"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ChangeCredentialRequest rotación de credencial del usuario autenticado.
type ChangeCredentialRequest struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,min=8"`
}
