package postgres

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationProvider_OrdenadasYCompletas(t *testing.T) {
	p, err := NewMigrationProvider()
	require.NoError(t, err)

	ms := p.Migrations()
	require.Len(t, ms, 4)
	for i, m := range ms {
		assert.Equal(t, i+1, m.Version)
		assert.NotNil(t, m.Up)
		assert.NotNil(t, m.Down)
	}
}

func TestMigrations_ScriptsUpYDown(t *testing.T) {
	fsys, err := Migrations()
	require.NoError(t, err)

	ups, err := fs.Glob(fsys, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(fsys, "*.down.sql")
	require.NoError(t, err)
	assert.Len(t, ups, 4)
	assert.Len(t, downs, 4)

	tenants, err := fs.ReadFile(fsys, "0000000001_tenants.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(tenants), "lower(domain)")

	identity, err := fs.ReadFile(fsys, "0000000002_identity.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(identity), "NULLS NOT DISTINCT (name, tenant_id)")
}
