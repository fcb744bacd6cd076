package tenant

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeDomain forma canónica del dominio: sin espacios ni punto final, en minúsculas.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimSuffix(d, ".")
	return cases.Lower(language.Und).String(d)
}

// NormalizeEmail recorta y pasa a minúsculas.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

func validDomain(d string) bool {
	if d == "" || len(d) > 253 || strings.ContainsAny(d, " \t/@:") {
		return false
	}
	for _, label := range strings.Split(d, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
	}
	return true
}

// newTenantURL slug URL-safe de 22 caracteres a partir de un UUID aleatorio.
func newTenantURL() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}
