package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashYCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("Secreta#2024")
	require.NoError(t, err)
	assert.NotEqual(t, "Secreta#2024", hash)

	assert.NoError(t, h.Compare(hash, "Secreta#2024"))
	assert.Error(t, h.Compare(hash, "otra"))
}

func TestNewInitialCredential_AleatoriaYURLSafe(t *testing.T) {
	a, err := NewInitialCredential()
	require.NoError(t, err)
	b, err := NewInitialCredential()
	require.NoError(t, err)

	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
