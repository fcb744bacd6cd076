package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

var _ repository.IdentityStore = (*IdentityStore)(nil)

// IdentityStore usuarios, roles y asignaciones con clave de tenant sobre PostgreSQL.
type IdentityStore struct {
	q      Querier
	tc     tenancy.Context
	hasher repository.CredentialHasher
	now    func() time.Time
}

// CreateUser crea la identidad con la credencial hasheada; email duplicado es domain.ErrConflict.
func (s *IdentityStore) CreateUser(ctx context.Context, tenantID *string, email, initialCredential string) (string, error) {
	if !s.tc.Permits(tenantID) {
		return "", fmt.Errorf("crear usuario: %w", domain.ErrCrossTenantWrite)
	}
	email = strings.TrimSpace(email)
	if email == "" || initialCredential == "" {
		return "", domain.NewValidationError("email", "email y credencial son requeridos")
	}
	hash, err := s.hasher.Hash(initialCredential)
	if err != nil {
		return "", fmt.Errorf("hash credencial: %w", err)
	}
	now := s.now()
	id := uuid.New().String()
	const query = `
		INSERT INTO users (id, tenant_id, email, password_hash, must_rotate_credential, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, $5, $6, $7)`
	if _, err := s.q.Exec(ctx, query, id, tenantID, email, hash, entity.UserStatusActive, now, now); err != nil {
		return "", writeError("insert user", err)
	}
	return id, nil
}

// EnsureRole inserta el rol si no existe y devuelve su id. El índice único (name, tenant_id)
// resuelve las carreras entre llamadas concurrentes.
func (s *IdentityStore) EnsureRole(ctx context.Context, tenantID *string, name string) (string, error) {
	if !s.tc.Permits(tenantID) {
		return "", fmt.Errorf("asegurar rol: %w", domain.ErrCrossTenantWrite)
	}
	if strings.TrimSpace(name) == "" {
		return "", domain.NewValidationError("name", "nombre de rol requerido")
	}
	const insert = `
		INSERT INTO roles (id, tenant_id, name) VALUES ($1, $2, $3)
		ON CONFLICT (name, tenant_id) DO NOTHING`
	if _, err := s.q.Exec(ctx, insert, uuid.New().String(), tenantID, name); err != nil {
		return "", writeError("insert role", err)
	}
	const sel = `SELECT id FROM roles WHERE name = $1 AND tenant_id IS NOT DISTINCT FROM $2`
	var id string
	if err := s.q.QueryRow(ctx, sel, name, tenantID).Scan(&id); err != nil {
		return "", fmt.Errorf("get role %s: %w", name, err)
	}
	return id, nil
}

// AssignRole crea el vínculo solo si usuario y rol son del mismo tenant (y del contexto si es Scoped),
// luego verifica que exista. Un vínculo no verificado es domain.ErrNotFound.
func (s *IdentityStore) AssignRole(ctx context.Context, userID, roleID string) error {
	const insert = `
		INSERT INTO user_roles (user_id, role_id)
		SELECT u.id, r.id
		  FROM users u
		  JOIN roles r ON r.tenant_id IS NOT DISTINCT FROM u.tenant_id
		 WHERE u.id::text = $1 AND r.id::text = $2
		   AND ($3 OR u.tenant_id::text = $4)
		ON CONFLICT DO NOTHING`
	if _, err := s.q.Exec(ctx, insert, userID, roleID, s.tc.IsUnscoped(), s.tc.TenantID()); err != nil {
		return writeError("assign role", err)
	}
	const check = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id::text = $1 AND role_id::text = $2)`
	var ok bool
	if err := s.q.QueryRow(ctx, check, userID, roleID).Scan(&ok); err != nil {
		return fmt.Errorf("verify role assignment: %w", err)
	}
	if !ok {
		return fmt.Errorf("asignar rol %s a %s: %w", roleID, userID, domain.ErrNotFound)
	}
	return nil
}

// FindUserByEmail busca por email sin distinguir mayúsculas; (nil, nil) si no existe o no es visible.
func (s *IdentityStore) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.findUser(ctx, "lower(email) = lower($1)", strings.TrimSpace(email))
}

// GetUser obtiene un usuario por ID.
func (s *IdentityStore) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return s.findUser(ctx, "id = $1", id)
}

func (s *IdentityStore) findUser(ctx context.Context, cond string, arg string) (*entity.User, error) {
	query := `
		SELECT id, tenant_id, email, password_hash, must_rotate_credential, status, created_at, updated_at
		FROM users WHERE ` + cond + ` AND ($2 OR tenant_id::text = $3)`
	var u entity.User
	err := s.q.QueryRow(ctx, query, arg, s.tc.IsUnscoped(), s.tc.TenantID()).Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.MustRotateCredential, &u.Status,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// RolesOf roles asignados al usuario.
func (s *IdentityStore) RolesOf(ctx context.Context, userID string) ([]entity.Role, error) {
	const query = `
		SELECT r.id, r.tenant_id, r.name
		  FROM roles r JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id::text = $1
		 ORDER BY r.name`
	rows, err := s.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Role, error) {
		var r entity.Role
		err := row.Scan(&r.ID, &r.TenantID, &r.Name)
		return r, err
	})
}

// SetCredential reemplaza la credencial del usuario visible en el contexto.
func (s *IdentityStore) SetCredential(ctx context.Context, userID, credential string) error {
	hash, err := s.hasher.Hash(credential)
	if err != nil {
		return fmt.Errorf("hash credencial: %w", err)
	}
	const query = `
		UPDATE users SET password_hash = $2, must_rotate_credential = false, updated_at = $3
		 WHERE id::text = $1 AND ($4 OR tenant_id::text = $5)`
	tag, err := s.q.Exec(ctx, query, userID, hash, s.now(), s.tc.IsUnscoped(), s.tc.TenantID())
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
