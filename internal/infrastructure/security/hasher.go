package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
)

var _ repository.CredentialHasher = (*BcryptHasher)(nil)

// BcryptHasher hashea credenciales con bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher cost <= 0 usa bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// NewInitialCredential credencial aleatoria de un solo uso para identidades recién creadas.
func NewInitialCredential() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generar credencial: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
