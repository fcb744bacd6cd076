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
)

// ProductUseCase casos de uso CRUD para productos. El tenant lo aporta el contexto, nunca la entrada.
type ProductUseCase struct {
	db repository.Database
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(db repository.Database) *ProductUseCase {
	return &ProductUseCase{db: db}
}

// Create crea un producto en el tenant del contexto. Bajo Unscoped el destino es in.TenantID.
func (uc *ProductUseCase) Create(ctx context.Context, tc tenancy.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "el nombre es requerido")
	}
	if in.Quantity < 0 {
		return nil, domain.NewValidationError("quantity", "la cantidad no puede ser negativa")
	}
	if in.PurchasePrice.IsNegative() || in.SellingPrice.IsNegative() {
		return nil, domain.NewValidationError("price", "los precios no pueden ser negativos")
	}
	product := &entity.Product{
		ID:            uuid.New().String(),
		Name:          name,
		Description:   in.Description,
		DOT:           in.DOT,
		Brand:         in.Brand,
		TyreSize:      in.TyreSize,
		TreadDepth:    in.TreadDepth,
		PurchasePrice: in.PurchasePrice,
		SellingPrice:  in.SellingPrice,
		Quantity:      in.Quantity,
		Barcode:       in.Barcode,
	}
	owner, err := targetTenant(ctx, uc.db, tc, in.TenantID)
	if err != nil {
		return nil, err
	}
	if tc.IsUnscoped() {
		product.AssignTenant(owner)
	}
	created, err := uc.db.Session(tc).Products().Create(ctx, product)
	if err != nil {
		return nil, err
	}
	return toProductResponse(created), nil
}

// GetByID obtiene un producto visible; nil si no existe para el llamador.
func (uc *ProductUseCase) GetByID(ctx context.Context, tc tenancy.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.db.Session(tc).Products().GetByID(ctx, id)
	if err != nil || product == nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List página de productos visibles; query filtra por nombre sin distinguir mayúsculas.
func (uc *ProductUseCase) List(ctx context.Context, tc tenancy.Context, query string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	var where []tenancy.Predicate
	if q := strings.TrimSpace(query); q != "" {
		where = append(where, tenancy.Contains{Column: "name", Substr: q})
	}
	list, total, err := uc.db.Session(tc).Products().ListPage(ctx, repository.Page{Limit: page.Limit, Offset: page.Offset}, where...)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Update actualiza los campos presentes. Devuelve nil si el producto no es visible.
func (uc *ProductUseCase) Update(ctx context.Context, tc tenancy.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	repo := uc.db.Session(tc).Products()
	product, err := repo.GetByID(ctx, id)
	if err != nil || product == nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "el nombre no puede quedar vacío")
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.DOT != nil {
		product.DOT = in.DOT
	}
	if in.Brand != nil {
		product.Brand = *in.Brand
	}
	if in.TyreSize != nil {
		product.TyreSize = *in.TyreSize
	}
	if in.TreadDepth != nil {
		product.TreadDepth = in.TreadDepth
	}
	if in.PurchasePrice != nil {
		product.PurchasePrice = *in.PurchasePrice
	}
	if in.SellingPrice != nil {
		product.SellingPrice = *in.SellingPrice
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return nil, domain.NewValidationError("quantity", "la cantidad no puede ser negativa")
		}
		product.Quantity = *in.Quantity
	}
	if in.Barcode != nil {
		product.Barcode = *in.Barcode
	}
	updated, err := repo.Update(ctx, product)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toProductResponse(updated), nil
}

// Delete baja lógica; false si el producto no es visible.
func (uc *ProductUseCase) Delete(ctx context.Context, tc tenancy.Context, id string) (bool, error) {
	return uc.db.Session(tc).Products().SoftDelete(ctx, id)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:            p.ID,
		TenantID:      p.OwnerTenant(),
		Name:          p.Name,
		Description:   p.Description,
		DOT:           p.DOT,
		Brand:         p.Brand,
		TyreSize:      p.TyreSize,
		TreadDepth:    p.TreadDepth,
		PurchasePrice: p.PurchasePrice,
		SellingPrice:  p.SellingPrice,
		Quantity:      p.Quantity,
		Barcode:       p.Barcode,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// targetTenant tenant destino de un alta. Con tenant resuelto es siempre el del contexto y
// requested se ignora; bajo Unscoped requested es obligatorio y debe ser un tenant vigente.
func targetTenant(ctx context.Context, db repository.Database, tc tenancy.Context, requested string) (string, error) {
	if !tc.IsUnscoped() {
		return tc.TenantID(), nil
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return "", domain.ErrTenantRequired
	}
	id, err := uuid.Parse(requested)
	if err != nil {
		return "", domain.NewValidationError("tenant_id", "debe ser un UUID")
	}
	t, err := db.Session(tc).Tenants().GetByID(ctx, id.String())
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", domain.NewValidationError("tenant_id", "tenant inexistente o dado de baja")
	}
	return t.ID, nil
}
