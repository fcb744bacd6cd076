package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ims-tenancy/internal/domain"
)

const (
	tenantA = "0b8f6a4e-6f7e-4c55-9c1e-6a0d1f3b2a01"
	tenantB = "5d2c7e91-1a3b-4f6d-8e2a-9b4c0d7f1e02"
)

type principal struct {
	auth      bool
	superuser bool
	claim     string
	subject   string
}

func (p principal) IsAuthenticated() bool { return p.auth }
func (p principal) IsSuperuser() bool     { return p.superuser }
func (p principal) TenantClaim() string   { return p.claim }
func (p principal) Subject() string       { return p.subject }

type directory map[string]bool

func (d directory) IsActive(_ context.Context, id string) (bool, error) {
	if id == "error" {
		return false, errors.New("fallo")
	}
	return d[id], nil
}

type failingDirectory struct{}

func (failingDirectory) IsActive(context.Context, string) (bool, error) {
	return false, errors.New("db caída")
}

type outcomes []string

func (o *outcomes) ObserveResolution(outcome string) { *o = append(*o, outcome) }

func TestResolve_ClaimValidoDevuelveScoped(t *testing.T) {
	r := NewResolver()
	tc, err := r.Resolve(context.Background(), principal{auth: true, claim: tenantA, subject: "u1"})
	require.NoError(t, err)
	assert.False(t, tc.IsUnscoped())
	assert.Equal(t, tenantA, tc.TenantID())
	assert.Equal(t, "u1", tc.Actor())
}

func TestResolve_ClaimEnMayusculasSeNormaliza(t *testing.T) {
	r := NewResolver()
	tc, err := r.Resolve(context.Background(), principal{auth: true, claim: "0B8F6A4E-6F7E-4C55-9C1E-6A0D1F3B2A01"})
	require.NoError(t, err)
	assert.Equal(t, tenantA, tc.TenantID())
}

func TestResolve_SuperusuarioSiempreUnscoped(t *testing.T) {
	r := NewResolver()

	// Caso 1: sin claim de tenant.
	tc, err := r.Resolve(context.Background(), principal{auth: true, superuser: true, subject: "root"})
	require.NoError(t, err)
	assert.True(t, tc.IsUnscoped())

	// Caso 2: con un claim de tenant obsoleto, se ignora.
	tc, err = r.Resolve(context.Background(), principal{auth: true, superuser: true, claim: tenantB})
	require.NoError(t, err)
	assert.True(t, tc.IsUnscoped())
	assert.Equal(t, "", tc.TenantID())
}

func TestResolve_RechazosNuncaUsanTenantPorDefecto(t *testing.T) {
	cases := map[string]Principal{
		"no autenticado": principal{claim: tenantA},
		"sin claim":      principal{auth: true},
		"claim inválido": principal{auth: true, claim: "no-es-uuid"},
		"principal nil":  nil,
	}
	r := NewResolver()
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			tc, err := r.Resolve(context.Background(), p)
			require.Error(t, err)
			var resErr *domain.TenantResolutionError
			assert.ErrorAs(t, err, &resErr)
			assert.ErrorIs(t, err, domain.ErrTenantResolution)
			assert.True(t, tc.IsZero())
		})
	}
}

func TestResolve_DirectorioRechazaTenantInactivo(t *testing.T) {
	var seen outcomes
	r := NewResolver(WithDirectory(directory{tenantA: true}), WithResolutionObserver(&seen))

	_, err := r.Resolve(context.Background(), principal{auth: true, claim: tenantA})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), principal{auth: true, claim: tenantB})
	assert.ErrorIs(t, err, domain.ErrTenantResolution)

	assert.Equal(t, outcomes{OutcomeScoped, OutcomeRejected}, seen)
}

func TestResolve_ErrorDelDirectorioNoEsRechazo(t *testing.T) {
	var seen outcomes
	r := NewResolver(WithDirectory(failingDirectory{}), WithResolutionObserver(&seen))

	_, err := r.Resolve(context.Background(), principal{auth: true, claim: tenantA})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTenantResolution)
	assert.Equal(t, outcomes{OutcomeError}, seen)
}

func TestContext_Permits(t *testing.T) {
	a, b := tenantA, tenantB
	assert.True(t, Scoped(tenantA).Permits(&a))
	assert.False(t, Scoped(tenantA).Permits(&b))
	assert.False(t, Scoped(tenantA).Permits(nil))
	assert.True(t, Unscoped().Permits(nil))
	assert.True(t, Unscoped().Permits(&b))
	assert.False(t, Context{}.Permits(nil))
	assert.Equal(t, "unresolved", Context{}.String())
}
