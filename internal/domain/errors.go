package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrConflict      = errors.New("el recurso ya existe")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrUserNotFound  = errors.New("usuario no encontrado")
	ErrUserNotActive = errors.New("usuario inactivo")

	// Aislamiento por tenant.
	ErrTenantResolution = errors.New("no se pudo resolver el tenant del llamador")
	ErrTenantRequired   = errors.New("se requiere tenant explícito para crear en contexto sin tenant")
	ErrCrossTenantWrite = errors.New("escritura sobre un tenant distinto al del contexto")
	ErrPhysicalDelete   = errors.New("borrado físico no permitido")

	ErrProvisioningPartialFailure = errors.New("aprovisionamiento de tenant incompleto")
)

// TenantResolutionError detalla por qué no se pudo resolver el contexto de tenant.
type TenantResolutionError struct {
	Reason string
}

func (e *TenantResolutionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTenantResolution.Error(), e.Reason)
}

func (e *TenantResolutionError) Unwrap() error { return ErrTenantResolution }

// ValidationError campo obligatorio ausente o con formato inválido.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError construye un ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ProvisioningError indica en qué paso falló el aprovisionamiento después de insertar el tenant.
type ProvisioningError struct {
	TenantID string
	Step     string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s (tenant %s, paso %s): %v", ErrProvisioningPartialFailure.Error(), e.TenantID, e.Step, e.Err)
}

// Unwrap expone tanto el sentinel como la causa original para errors.Is.
func (e *ProvisioningError) Unwrap() []error {
	return []error{ErrProvisioningPartialFailure, e.Err}
}
