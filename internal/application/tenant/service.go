// Package tenant aprovisionamiento y administración de tenants.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/ims-tenancy/internal/application/dto"
	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/security"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
)

// Pasos del aprovisionamiento posteriores a la inserción del tenant.
const (
	StepCreateAdmin = "create_admin"
	StepEnsureRole  = "ensure_admin_role"
	StepAssignRole  = "assign_admin_role"
)

// Resultados reportados a ProvisioningObserver.
const (
	OutcomeProvisioned = "provisioned"
	OutcomeRejected    = "rejected"
	OutcomeConflict    = "conflict"
	OutcomeFailed      = "failed"
)

// DirectoryInvalidator invalida la caché de tenants activos.
type DirectoryInvalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
}

// ProvisioningObserver métricas de aprovisionamiento.
type ProvisioningObserver interface {
	ObserveProvisioning(outcome string)
}

// Service casos de uso de tenants. Las operaciones reciben el contexto de tenant ya resuelto.
type Service struct {
	db            repository.Database
	directory     DirectoryInvalidator
	observer      ProvisioningObserver
	log           *logger.Logger
	newID         func() string
	newCredential func() (string, error)
}

// Option configura Service.
type Option func(*Service)

// WithDirectory invalida la caché de tenants al dar de baja o cambiar un tenant.
func WithDirectory(d DirectoryInvalidator) Option {
	return func(s *Service) { s.directory = d }
}

// WithObserver registra métricas de aprovisionamiento.
func WithObserver(o ProvisioningObserver) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger logger del servicio.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithIDGenerator reemplaza el generador de ids de tenant.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// WithCredentialGenerator reemplaza el generador de credenciales iniciales.
func WithCredentialGenerator(f func() (string, error)) Option {
	return func(s *Service) { s.newCredential = f }
}

// NewService construye el servicio.
func NewService(db repository.Database, opts ...Option) *Service {
	s := &Service{
		db:            db,
		log:           logger.Nop(),
		newID:         func() string { return uuid.New().String() },
		newCredential: security.NewInitialCredential,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Component("tenant")
	return s
}

// Provision crea el tenant, su usuario administrador y el rol Admin en una sola transacción.
// Si falla cualquier paso posterior a la inserción se devuelve *domain.ProvisioningError
// y no queda ningún efecto en el almacén.
func (s *Service) Provision(ctx context.Context, tc tenancy.Context, in dto.CreateTenantRequest) (*dto.ProvisionedTenantResponse, error) {
	if !tc.IsUnscoped() {
		s.observe(OutcomeRejected)
		return nil, fmt.Errorf("aprovisionar tenant: %w", domain.ErrForbidden)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		s.observe(OutcomeRejected)
		return nil, domain.NewValidationError("name", "el nombre es requerido")
	}
	domainName := NormalizeDomain(in.Domain)
	if !validDomain(domainName) {
		s.observe(OutcomeRejected)
		return nil, domain.NewValidationError("domain", "dominio requerido o con formato inválido")
	}

	taken, err := s.db.Session(tc).Tenants().DomainTaken(ctx, domainName, "")
	if err != nil {
		s.observe(OutcomeFailed)
		return nil, err
	}
	if taken {
		s.observe(OutcomeConflict)
		return nil, fmt.Errorf("dominio %s: %w", domainName, domain.ErrConflict)
	}

	credential, err := s.newCredential()
	if err != nil {
		s.observe(OutcomeFailed)
		return nil, err
	}
	t := &entity.Tenant{
		ID:        s.newID(),
		Name:      name,
		Domain:    domainName,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		TenantURL: newTenantURL(),
	}
	adminEmail := NormalizeEmail(in.Email)
	if adminEmail == "" {
		adminEmail = "admin@" + domainName
	}

	var adminID string
	err = s.db.RunInTx(ctx, tc, func(tx repository.Session) error {
		if _, err := tx.Tenants().Create(ctx, t); err != nil {
			return err
		}
		tenantID := t.ID
		id, err := tx.Identity().CreateUser(ctx, &tenantID, adminEmail, credential)
		if err != nil {
			return &domain.ProvisioningError{TenantID: t.ID, Step: StepCreateAdmin, Err: err}
		}
		roleID, err := tx.Identity().EnsureRole(ctx, &tenantID, entity.RoleAdmin)
		if err != nil {
			return &domain.ProvisioningError{TenantID: t.ID, Step: StepEnsureRole, Err: err}
		}
		if err := tx.Identity().AssignRole(ctx, id, roleID); err != nil {
			return &domain.ProvisioningError{TenantID: t.ID, Step: StepAssignRole, Err: err}
		}
		adminID = id
		return nil
	})
	if err != nil {
		var perr *domain.ProvisioningError
		switch {
		case errors.As(err, &perr):
			s.observe(OutcomeFailed)
			s.log.Tenant(perr.TenantID).Error().Err(perr.Err).Str("step", perr.Step).
				Msg("aprovisionamiento revertido")
		case errors.Is(err, domain.ErrConflict):
			s.observe(OutcomeConflict)
		default:
			s.observe(OutcomeFailed)
		}
		return nil, err
	}

	s.observe(OutcomeProvisioned)
	s.log.Tenant(t.ID).Info().Str("domain", t.Domain).Str("admin", adminEmail).Msg("tenant aprovisionado")
	return &dto.ProvisionedTenantResponse{
		Tenant:            *toTenantResponse(t),
		AdminUserID:       adminID,
		AdminEmail:        adminEmail,
		InitialCredential: credential,
	}, nil
}

// Get devuelve el tenant visible en el contexto (Scoped solo ve el propio) o nil.
func (s *Service) Get(ctx context.Context, tc tenancy.Context, id string) (*dto.TenantResponse, error) {
	t, err := s.db.Session(tc).Tenants().GetByID(ctx, id)
	if err != nil || t == nil {
		return nil, err
	}
	return toTenantResponse(t), nil
}

// GetByDomain busca por dominio sin distinguir mayúsculas. Scoped solo encuentra el propio.
func (s *Service) GetByDomain(ctx context.Context, tc tenancy.Context, domainName string) (*dto.TenantResponse, error) {
	normalized := NormalizeDomain(domainName)
	if !validDomain(normalized) {
		return nil, domain.NewValidationError("domain", "dominio requerido o con formato inválido")
	}
	t, err := s.db.Session(tc).Tenants().GetByDomain(ctx, normalized)
	if err != nil || t == nil {
		return nil, err
	}
	return toTenantResponse(t), nil
}

// List página de tenants visibles, sin los dados de baja.
func (s *Service) List(ctx context.Context, tc tenancy.Context, page dto.PageRequest) (*dto.TenantListResponse, error) {
	page.DefaultPage()
	list, total, err := s.db.Session(tc).Tenants().ListPage(ctx, repository.Page{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	items := make([]dto.TenantResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTenantResponse(t))
	}
	return &dto.TenantListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total}}, nil
}

// Update combina solo los campos no vacíos. Un cambio de dominio vuelve a verificar la unicidad
// excluyendo al propio tenant. Devuelve nil si el tenant no es visible.
func (s *Service) Update(ctx context.Context, tc tenancy.Context, id string, in dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	repo := s.db.Session(tc).Tenants()
	t, err := repo.GetByID(ctx, id)
	if err != nil || t == nil {
		return nil, err
	}
	if v, ok := nonBlank(in.Name); ok {
		t.Name = v
	}
	if v, ok := nonBlank(in.Email); ok {
		t.Email = v
	}
	if v, ok := nonBlank(in.Phone); ok {
		t.Phone = v
	}
	if v, ok := nonBlank(in.Address); ok {
		t.Address = v
	}
	if v, ok := nonBlank(in.City); ok {
		t.City = v
	}
	if v, ok := nonBlank(in.Domain); ok {
		d := NormalizeDomain(v)
		if !validDomain(d) {
			return nil, domain.NewValidationError("domain", "dominio con formato inválido")
		}
		// La consulta es global: un contexto Scoped no ve otros tenants.
		taken, err := s.db.Session(tenancy.Unscoped()).Tenants().DomainTaken(ctx, d, t.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("dominio %s: %w", d, domain.ErrConflict)
		}
		t.Domain = d
	}
	updated, err := repo.Update(ctx, t)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toTenantResponse(updated), nil
}

// Delete baja lógica del tenant. Solo un superusuario puede dar de baja tenants.
func (s *Service) Delete(ctx context.Context, tc tenancy.Context, id string) (bool, error) {
	if !tc.IsUnscoped() {
		return false, fmt.Errorf("baja de tenant: %w", domain.ErrForbidden)
	}
	ok, err := s.db.Session(tc).Tenants().SoftDelete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if s.directory != nil {
		if err := s.directory.Invalidate(ctx, id); err != nil {
			s.log.Tenant(id).Warn().Err(err).Msg("no se pudo invalidar la caché de tenants")
		}
	}
	s.log.Tenant(id).Info().Str("actor", tc.Actor()).Msg("tenant dado de baja")
	return true, nil
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveProvisioning(outcome)
	}
}

func nonBlank(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	return v, v != ""
}

func toTenantResponse(t *entity.Tenant) *dto.TenantResponse {
	return &dto.TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Domain:    t.Domain,
		Email:     t.Email,
		Phone:     t.Phone,
		Address:   t.Address,
		City:      t.City,
		TenantURL: t.TenantURL,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
