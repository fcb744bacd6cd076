package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del inventario de un tenant (llantas: DOT, medida, profundidad de banda).
type Product struct {
	ID string
	TenantOwned
	Name          string
	Description   string
	DOT           *time.Time // fecha de fabricación
	Brand         string
	TyreSize      string
	TreadDepth    *decimal.Decimal // mm
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	Quantity      int
	Barcode       string
	Audit
}

func (p *Product) RecordID() string   { return p.ID }
func (p *Product) EntityKind() string { return KindProduct }
