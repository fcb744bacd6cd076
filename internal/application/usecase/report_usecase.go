package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

// InventoryReport datos del reporte de inventario de un llamador.
type InventoryReport struct {
	Title       string
	GeneratedAt time.Time
	Products    []*entity.Product
	TotalUnits  int
	StockValue  decimal.Decimal // suma de cantidad * precio de compra
}

// InventoryReportGenerator puerto de salida que renderiza el reporte (PDF).
type InventoryReportGenerator interface {
	GenerateInventoryReport(ctx context.Context, report InventoryReport) ([]byte, error)
}

// ReportUseCase arma el reporte de inventario con los productos visibles para el llamador.
type ReportUseCase struct {
	db        repository.Database
	generator InventoryReportGenerator
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(db repository.Database, generator InventoryReportGenerator) *ReportUseCase {
	return &ReportUseCase{db: db, generator: generator, now: time.Now}
}

// Build reúne los datos del reporte. El reporte es siempre de un tenant: un contexto
// Unscoped recibe domain.ErrTenantRequired.
func (uc *ReportUseCase) Build(ctx context.Context, tc tenancy.Context) (*InventoryReport, error) {
	if tc.IsUnscoped() {
		return nil, domain.ErrTenantRequired
	}
	s := uc.db.Session(tc)
	title := "Inventario"
	t, err := s.Tenants().GetByID(ctx, tc.TenantID())
	if err != nil {
		return nil, err
	}
	if t != nil {
		title = "Inventario " + t.Name
	}
	products, err := s.Products().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	report := &InventoryReport{
		Title:       title,
		GeneratedAt: uc.now(),
		Products:    products,
		StockValue:  decimal.Zero,
	}
	for _, p := range products {
		report.TotalUnits += p.Quantity
		report.StockValue = report.StockValue.Add(p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return report, nil
}

// GeneratePDF arma el reporte y lo renderiza.
func (uc *ReportUseCase) GeneratePDF(ctx context.Context, tc tenancy.Context) ([]byte, error) {
	report, err := uc.Build(ctx, tc)
	if err != nil {
		return nil, err
	}
	return uc.generator.GenerateInventoryReport(ctx, *report)
}
