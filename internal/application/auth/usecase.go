package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/ims-tenancy/internal/application/dto"
	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: login, rotación de credencial y alta del superusuario.
type AuthUseCase struct {
	db     repository.Database
	hasher repository.CredentialHasher
	jwtCfg JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(db repository.Database, hasher repository.CredentialHasher, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{db: db, hasher: hasher, jwtCfg: jwtCfg}
}

// Login verifica email/credencial y emite un token con el tenant del usuario en el claim tenant_id.
// Solo un usuario sin tenant con el rol global SuperAdmin recibe superuser.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	// La identidad aún no tiene tenant resuelto: la búsqueda es global.
	s := uc.db.Session(tenancy.Unscoped())
	user, err := s.Identity().FindUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := uc.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrUserNotActive
	}
	if user.TenantID != nil {
		t, err := s.Tenants().GetByID(ctx, *user.TenantID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("tenant dado de baja: %w", domain.ErrForbidden)
		}
	}
	roles, err := s.Identity().RolesOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user, roles)
	identity := jwt.Identity{
		UserID:    user.ID,
		TenantID:  resp.TenantID,
		Role:      primaryRole(resp.Roles),
		Superuser: resp.Superuser,
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, identity, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: *resp}, nil
}

// ChangeCredential rota la credencial del usuario autenticado.
func (uc *AuthUseCase) ChangeCredential(ctx context.Context, tc tenancy.Context, userID string, in dto.ChangeCredentialRequest) error {
	if len(in.New) < 8 {
		return domain.NewValidationError("new_password", "mínimo 8 caracteres")
	}
	id := uc.db.Session(tc).Identity()
	user, err := id.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if err := uc.hasher.Compare(user.PasswordHash, in.Current); err != nil {
		return domain.ErrUnauthorized
	}
	return id.SetCredential(ctx, userID, in.New)
}

// CreateSuperAdmin crea la identidad global con el rol SuperAdmin. Devuelve el id del usuario.
func (uc *AuthUseCase) CreateSuperAdmin(ctx context.Context, email, credential string) (string, error) {
	if len(credential) < 8 {
		return "", domain.NewValidationError("password", "mínimo 8 caracteres")
	}
	var userID string
	err := uc.db.RunInTx(ctx, tenancy.Unscoped(), func(tx repository.Session) error {
		id, err := tx.Identity().CreateUser(ctx, nil, strings.ToLower(strings.TrimSpace(email)), credential)
		if err != nil {
			return err
		}
		roleID, err := tx.Identity().EnsureRole(ctx, nil, entity.RoleSuperAdmin)
		if err != nil {
			return err
		}
		if err := tx.Identity().AssignRole(ctx, id, roleID); err != nil {
			return err
		}
		userID = id
		return nil
	})
	return userID, err
}

func primaryRole(roles []string) string {
	for _, r := range roles {
		if r == entity.RoleSuperAdmin || r == entity.RoleAdmin {
			return r
		}
	}
	if len(roles) > 0 {
		return roles[0]
	}
	return ""
}

func toUserResponse(u *entity.User, roles []entity.Role) *dto.UserResponse {
	out := &dto.UserResponse{
		ID:                   u.ID,
		Email:                u.Email,
		Roles:                make([]string, 0, len(roles)),
		MustRotateCredential: u.MustRotateCredential,
	}
	if u.TenantID != nil {
		out.TenantID = *u.TenantID
	}
	for _, r := range roles {
		out.Roles = append(out.Roles, r.Name)
		if r.Name == entity.RoleSuperAdmin && u.TenantID == nil && r.TenantID == nil {
			out.Superuser = true
		}
	}
	return out
}
