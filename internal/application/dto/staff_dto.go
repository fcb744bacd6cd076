package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStaffRequest alta de empleado. Con Email se crea además su identidad de acceso.
type CreateStaffRequest struct {
	TenantID    string           `json:"tenant_id,omitempty"` // solo superusuario
	Name        string           `json:"name" validate:"required,min=1,max=200"`
	DateOfBirth *time.Time       `json:"date_of_birth"`
	Gender      string           `json:"gender"`
	NationalID  string           `json:"national_id"`
	Email       string           `json:"email" validate:"omitempty,email"`
	Phone       string           `json:"phone"`
	Address     string           `json:"address"`
	City        string           `json:"city"`
	Country     string           `json:"country"`
	HireDate    *time.Time       `json:"hire_date"`
	JobTitle    string           `json:"job_title"`
	Department  string           `json:"department"`
	StaffCode   string           `json:"staff_code"`
	Salary      decimal.Decimal  `json:"salary"`
	Allowances  *decimal.Decimal `json:"allowances"`
	Deductions  *decimal.Decimal `json:"deductions"`
}

// UpdateStaffRequest actualización parcial de un empleado.
type UpdateStaffRequest struct {
	Name        *string          `json:"name"`
	DateOfBirth *time.Time       `json:"date_of_birth"`
	Gender      *string          `json:"gender"`
	NationalID  *string          `json:"national_id"`
	Phone       *string          `json:"phone"`
	Address     *string          `json:"address"`
	City        *string          `json:"city"`
	Country     *string          `json:"country"`
	HireDate    *time.Time       `json:"hire_date"`
	JobTitle    *string          `json:"job_title"`
	Department  *string          `json:"department"`
	StaffCode   *string          `json:"staff_code"`
	Salary      *decimal.Decimal `json:"salary"`
	Allowances  *decimal.Decimal `json:"allowances"`
	Deductions  *decimal.Decimal `json:"deductions"`
}

// StaffResponse salida de un empleado.
type StaffResponse struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	Name        string           `json:"name"`
	DateOfBirth *time.Time       `json:"date_of_birth,omitempty"`
	Gender      string           `json:"gender"`
	NationalID  string           `json:"national_id"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone"`
	Address     string           `json:"address"`
	City        string           `json:"city"`
	Country     string           `json:"country"`
	HireDate    *time.Time       `json:"hire_date,omitempty"`
	JobTitle    string           `json:"job_title"`
	Department  string           `json:"department"`
	StaffCode   string           `json:"staff_code"`
	Salary      decimal.Decimal  `json:"salary"`
	Allowances  *decimal.Decimal `json:"allowances,omitempty"`
	Deductions  *decimal.Decimal `json:"deductions,omitempty"`
	UserID      string           `json:"user_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

// OnboardedStaffResponse alta con identidad; la credencial inicial solo se devuelve aquí.
type OnboardedStaffResponse struct {
	Staff             StaffResponse `json:"staff"`
	InitialCredential string        `json:"initial_credential,omitempty"`
}

// StaffListResponse lista de empleados.
type StaffListResponse struct {
	Items []StaffResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
