package tenancy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/ims-tenancy/internal/domain"
)

// Principal llamador autenticado, independiente de cómo se autenticó (bearer token, sesión, CLI).
type Principal interface {
	IsAuthenticated() bool
	IsSuperuser() bool
	TenantClaim() string
	Subject() string
}

// TenantDirectory consulta si un tenant existe y no está borrado.
type TenantDirectory interface {
	IsActive(ctx context.Context, tenantID string) (bool, error)
}

// ResolutionObserver recibe el resultado de cada resolución (métricas).
type ResolutionObserver interface {
	ObserveResolution(outcome string)
}

// Resultados de resolución reportados al observer.
const (
	OutcomeScoped   = "scoped"
	OutcomeUnscoped = "unscoped"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Resolver deriva el Context de un Principal. No guarda estado entre peticiones.
type Resolver struct {
	directory TenantDirectory
	observer  ResolutionObserver
}

// ResolverOption configura el Resolver.
type ResolverOption func(*Resolver)

// WithDirectory exige que el tenant del claim exista y no esté borrado.
func WithDirectory(d TenantDirectory) ResolverOption {
	return func(r *Resolver) { r.directory = d }
}

// WithResolutionObserver registra un observer de resultados.
func WithResolutionObserver(o ResolutionObserver) ResolverOption {
	return func(r *Resolver) { r.observer = o }
}

// NewResolver construye el resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve devuelve Unscoped para superusuarios (se ignora cualquier claim de tenant)
// y Scoped(tenant) para el resto. Claim ausente, no UUID o tenant inactivo es
// *domain.TenantResolutionError; nunca se usa un tenant por defecto.
func (r *Resolver) Resolve(ctx context.Context, p Principal) (Context, error) {
	if p == nil || !p.IsAuthenticated() {
		return r.reject("llamador no autenticado")
	}
	if p.IsSuperuser() {
		r.observe(OutcomeUnscoped)
		return Unscoped().WithActor(p.Subject()), nil
	}
	claim := p.TenantClaim()
	if claim == "" {
		return r.reject("claim de tenant ausente")
	}
	id, err := uuid.Parse(claim)
	if err != nil {
		return r.reject("claim de tenant inválido")
	}
	tenantID := id.String()
	if r.directory != nil {
		active, err := r.directory.IsActive(ctx, tenantID)
		if err != nil {
			r.observe(OutcomeError)
			return Context{}, fmt.Errorf("consultar tenant %s: %w", tenantID, err)
		}
		if !active {
			return r.reject("tenant inexistente o dado de baja")
		}
	}
	r.observe(OutcomeScoped)
	return Scoped(tenantID).WithActor(p.Subject()), nil
}

func (r *Resolver) reject(reason string) (Context, error) {
	r.observe(OutcomeRejected)
	return Context{}, &domain.TenantResolutionError{Reason: reason}
}

func (r *Resolver) observe(outcome string) {
	if r.observer != nil {
		r.observer.ObserveResolution(outcome)
	}
}
