package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Staff empleado de un tenant. UserID enlaza la identidad de acceso creada en el alta.
type Staff struct {
	ID string
	TenantOwned
	Name        string
	DateOfBirth *time.Time
	Gender      string
	NationalID  string
	Email       string
	Phone       string
	Address     string
	City        string
	Country     string
	HireDate    *time.Time
	JobTitle    string
	Department  string
	StaffCode   string
	Salary      decimal.Decimal
	Allowances  *decimal.Decimal
	Deductions  *decimal.Decimal
	UserID      *string
	Audit
}

func (s *Staff) RecordID() string   { return s.ID }
func (s *Staff) EntityKind() string { return KindStaff }
