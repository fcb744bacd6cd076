package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// TenantID viaja en el único claim de tenant reconocido, "tenant_id".
// Superuser solo se emite para usuarios sin tenant con el rol global SuperAdmin.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	TenantID  string `json:"tenant_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Superuser bool   `json:"superuser,omitempty"`
}

// IsAuthenticated el token identifica a un usuario.
func (c *Claims) IsAuthenticated() bool { return c != nil && c.UserID != "" }

// IsSuperuser el token es de superusuario.
func (c *Claims) IsSuperuser() bool { return c != nil && c.Superuser }

// TenantClaim valor crudo del claim tenant_id.
func (c *Claims) TenantClaim() string {
	if c == nil {
		return ""
	}
	return c.TenantID
}

// Subject usuario del token.
func (c *Claims) Subject() string {
	if c == nil {
		return ""
	}
	return c.UserID
}

// Identity datos a firmar en el token.
type Identity struct {
	UserID    string
	TenantID  string
	Role      string
	Superuser bool
}

// Generate genera un token JWT firmado con la identidad.
func Generate(secret string, id Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:    id.UserID,
		TenantID:  id.TenantID,
		Role:      id.Role,
		Superuser: id.Superuser,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve sus claims.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}
