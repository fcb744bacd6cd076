package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/ims-tenancy/internal/application/dto"
	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/security"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
)

// StaffUseCase casos de uso de empleados. El alta con email crea además la identidad de acceso
// del empleado con el rol Staff de su tenant, todo en una transacción.
type StaffUseCase struct {
	db            repository.Database
	log           *logger.Logger
	newCredential func() (string, error)
}

// NewStaffUseCase construye el caso de uso. log nil descarta los logs.
func NewStaffUseCase(db repository.Database, log *logger.Logger) *StaffUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StaffUseCase{db: db, log: log.Component("staff"), newCredential: security.NewInitialCredential}
}

// Create da de alta un empleado en el tenant del contexto. Bajo Unscoped el destino es in.TenantID.
func (uc *StaffUseCase) Create(ctx context.Context, tc tenancy.Context, in dto.CreateStaffRequest) (*dto.OnboardedStaffResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "el nombre es requerido")
	}
	if in.Salary.IsNegative() {
		return nil, domain.NewValidationError("salary", "el salario no puede ser negativo")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	staff := &entity.Staff{
		ID:          uuid.New().String(),
		Name:        name,
		DateOfBirth: in.DateOfBirth,
		Gender:      in.Gender,
		NationalID:  in.NationalID,
		Email:       email,
		Phone:       in.Phone,
		Address:     in.Address,
		City:        in.City,
		Country:     in.Country,
		HireDate:    in.HireDate,
		JobTitle:    in.JobTitle,
		Department:  in.Department,
		StaffCode:   in.StaffCode,
		Salary:      in.Salary,
		Allowances:  in.Allowances,
		Deductions:  in.Deductions,
	}
	tenantID, err := targetTenant(ctx, uc.db, tc, in.TenantID)
	if err != nil {
		return nil, err
	}
	if tc.IsUnscoped() {
		staff.AssignTenant(tenantID)
	}

	var credential string
	err = uc.db.RunInTx(ctx, tc, func(tx repository.Session) error {
		if email != "" {
			cred, err := uc.newCredential()
			if err != nil {
				return err
			}
			userID, err := tx.Identity().CreateUser(ctx, &tenantID, email, cred)
			if err != nil {
				return err
			}
			roleID, err := tx.Identity().EnsureRole(ctx, &tenantID, entity.RoleStaff)
			if err != nil {
				return err
			}
			if err := tx.Identity().AssignRole(ctx, userID, roleID); err != nil {
				return err
			}
			staff.UserID = &userID
			credential = cred
		}
		_, err := tx.Staff().Create(ctx, staff)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Tenant(tenantID).Info().Str("staff", staff.ID).Bool("identity", staff.UserID != nil).
		Msg("empleado dado de alta")
	return &dto.OnboardedStaffResponse{Staff: *toStaffResponse(staff), InitialCredential: credential}, nil
}

// GetByID obtiene un empleado visible; nil si no existe para el llamador.
func (uc *StaffUseCase) GetByID(ctx context.Context, tc tenancy.Context, id string) (*dto.StaffResponse, error) {
	s, err := uc.db.Session(tc).Staff().GetByID(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	return toStaffResponse(s), nil
}

// List página de empleados visibles; query filtra por nombre.
func (uc *StaffUseCase) List(ctx context.Context, tc tenancy.Context, query string, page dto.PageRequest) (*dto.StaffListResponse, error) {
	page.DefaultPage()
	var where []tenancy.Predicate
	if q := strings.TrimSpace(query); q != "" {
		where = append(where, tenancy.Contains{Column: "name", Substr: q})
	}
	list, total, err := uc.db.Session(tc).Staff().ListPage(ctx, repository.Page{Limit: page.Limit, Offset: page.Offset}, where...)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StaffResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toStaffResponse(s))
	}
	return &dto.StaffListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total}}, nil
}

// Update actualiza los campos presentes. El email no cambia: es la identidad de acceso.
func (uc *StaffUseCase) Update(ctx context.Context, tc tenancy.Context, id string, in dto.UpdateStaffRequest) (*dto.StaffResponse, error) {
	repo := uc.db.Session(tc).Staff()
	s, err := repo.GetByID(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "el nombre no puede quedar vacío")
		}
		s.Name = name
	}
	setString(&s.Gender, in.Gender)
	setString(&s.NationalID, in.NationalID)
	setString(&s.Phone, in.Phone)
	setString(&s.Address, in.Address)
	setString(&s.City, in.City)
	setString(&s.Country, in.Country)
	setString(&s.JobTitle, in.JobTitle)
	setString(&s.Department, in.Department)
	setString(&s.StaffCode, in.StaffCode)
	if in.DateOfBirth != nil {
		s.DateOfBirth = in.DateOfBirth
	}
	if in.HireDate != nil {
		s.HireDate = in.HireDate
	}
	if in.Salary != nil {
		if in.Salary.IsNegative() {
			return nil, domain.NewValidationError("salary", "el salario no puede ser negativo")
		}
		s.Salary = *in.Salary
	}
	if in.Allowances != nil {
		s.Allowances = in.Allowances
	}
	if in.Deductions != nil {
		s.Deductions = in.Deductions
	}
	updated, err := repo.Update(ctx, s)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toStaffResponse(updated), nil
}

// Delete baja lógica; false si el empleado no es visible.
func (uc *StaffUseCase) Delete(ctx context.Context, tc tenancy.Context, id string) (bool, error) {
	return uc.db.Session(tc).Staff().SoftDelete(ctx, id)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func toStaffResponse(s *entity.Staff) *dto.StaffResponse {
	out := &dto.StaffResponse{
		ID:          s.ID,
		TenantID:    s.OwnerTenant(),
		Name:        s.Name,
		DateOfBirth: s.DateOfBirth,
		Gender:      s.Gender,
		NationalID:  s.NationalID,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		City:        s.City,
		Country:     s.Country,
		HireDate:    s.HireDate,
		JobTitle:    s.JobTitle,
		Department:  s.Department,
		StaffCode:   s.StaffCode,
		Salary:      s.Salary,
		Allowances:  s.Allowances,
		Deductions:  s.Deductions,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.UserID != nil {
		out.UserID = *s.UserID
	}
	return out
}
