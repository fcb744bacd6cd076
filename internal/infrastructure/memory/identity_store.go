package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

var _ repository.IdentityStore = (*identityStore)(nil)

type identityStore struct {
	db   *Database
	tc   tenancy.Context
	inTx bool
}

func sameTenant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyRef(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (s *identityStore) CreateUser(ctx context.Context, tenantID *string, email, initialCredential string) (string, error) {
	if !s.tc.Permits(tenantID) {
		return "", fmt.Errorf("crear usuario: %w", domain.ErrCrossTenantWrite)
	}
	email = strings.TrimSpace(email)
	if email == "" || initialCredential == "" {
		return "", domain.NewValidationError("email", "email y credencial son requeridos")
	}
	hash, err := s.db.hasher.Hash(initialCredential)
	if err != nil {
		return "", fmt.Errorf("hash credencial: %w", err)
	}
	now := s.db.now()
	u := entity.User{
		ID:                   uuid.New().String(),
		TenantID:             copyRef(tenantID),
		Email:                email,
		PasswordHash:         hash,
		MustRotateCredential: true,
		Status:               entity.UserStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	err = s.db.write(s.inTx, func(st *state) error {
		for _, other := range st.users {
			if strings.EqualFold(other.Email, email) {
				return fmt.Errorf("insert user: %w", domain.ErrConflict)
			}
		}
		st.users[u.ID] = u
		return nil
	})
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *identityStore) EnsureRole(ctx context.Context, tenantID *string, name string) (string, error) {
	if !s.tc.Permits(tenantID) {
		return "", fmt.Errorf("asegurar rol: %w", domain.ErrCrossTenantWrite)
	}
	if strings.TrimSpace(name) == "" {
		return "", domain.NewValidationError("name", "nombre de rol requerido")
	}
	var id string
	err := s.db.write(s.inTx, func(st *state) error {
		for _, r := range st.roles {
			if r.Name == name && sameTenant(r.TenantID, tenantID) {
				id = r.ID
				return nil
			}
		}
		r := entity.Role{ID: uuid.New().String(), TenantID: copyRef(tenantID), Name: name}
		st.roles[r.ID] = r
		id = r.ID
		return nil
	})
	return id, err
}

func (s *identityStore) AssignRole(ctx context.Context, userID, roleID string) error {
	return s.db.write(s.inTx, func(st *state) error {
		u, okU := st.users[userID]
		r, okR := st.roles[roleID]
		if !okU || !okR || !sameTenant(u.TenantID, r.TenantID) || !s.tc.Permits(u.TenantID) {
			return fmt.Errorf("asignar rol %s a %s: %w", roleID, userID, domain.ErrNotFound)
		}
		st.userRoles[entity.UserRole{UserID: userID, RoleID: roleID}] = struct{}{}
		return nil
	})
}

func (s *identityStore) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = strings.TrimSpace(email)
	return s.findUser(func(u entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *identityStore) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.findUser(func(u entity.User) bool { return u.ID == id })
}

func (s *identityStore) findUser(match func(entity.User) bool) (*entity.User, error) {
	var found *entity.User
	err := s.db.read(func(st *state) error {
		for _, u := range st.users {
			if match(u) && s.tc.Permits(u.TenantID) {
				c := u
				found = &c
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *identityStore) RolesOf(ctx context.Context, userID string) ([]entity.Role, error) {
	var out []entity.Role
	err := s.db.read(func(st *state) error {
		for ur := range st.userRoles {
			if ur.UserID == userID {
				out = append(out, st.roles[ur.RoleID])
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (s *identityStore) SetCredential(ctx context.Context, userID, credential string) error {
	hash, err := s.db.hasher.Hash(credential)
	if err != nil {
		return fmt.Errorf("hash credencial: %w", err)
	}
	return s.db.write(s.inTx, func(st *state) error {
		u, ok := st.users[userID]
		if !ok || !s.tc.Permits(u.TenantID) {
			return domain.ErrUserNotFound
		}
		u.PasswordHash = hash
		u.MustRotateCredential = false
		u.UpdatedAt = s.db.now()
		st.users[userID] = u
		return nil
	})
}
