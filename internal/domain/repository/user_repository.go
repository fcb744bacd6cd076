package repository

import (
	"context"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
)

// IdentityStore usuarios y roles con clave de tenant. Las escrituras respetan el contexto
// de la sesión: un contexto Scoped solo crea identidades y roles de su propio tenant.
type IdentityStore interface {
	CreateUser(ctx context.Context, tenantID *string, email, initialCredential string) (string, error)
	// EnsureRole devuelve el rol (name, tenantID), creándolo si no existe.
	EnsureRole(ctx context.Context, tenantID *string, name string) (string, error)
	// AssignRole vincula usuario y rol del mismo tenant y verifica que el vínculo quedó persistido.
	AssignRole(ctx context.Context, userID, roleID string) error
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	RolesOf(ctx context.Context, userID string) ([]entity.Role, error)
	// SetCredential reemplaza la credencial y limpia MustRotateCredential.
	SetCredential(ctx context.Context, userID, credential string) error
}

// CredentialHasher hashea y verifica credenciales.
type CredentialHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}
