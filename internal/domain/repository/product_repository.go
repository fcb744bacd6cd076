package repository

import (
	"context"

	"github.com/jhoicas/ims-tenancy/internal/domain/entity"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

// Page ventana de un listado ordenado por alta. Limit <= 0 no acota.
type Page struct {
	Limit  int
	Offset int
}

// Store puerto CRUD genérico para filas auditadas. Toda operación queda aislada por el
// contexto de tenant de la sesión que la creó; el llamador nunca pasa el tenant.
type Store[T any] interface {
	// ListAll devuelve las filas visibles; where se combina con AND con el filtro de aislamiento.
	ListAll(ctx context.Context, where ...tenancy.Predicate) ([]*T, error)
	// ListPage igual que ListAll pero devuelve solo la ventana pedida y el total de filas visibles.
	ListPage(ctx context.Context, page Page, where ...tenancy.Predicate) ([]*T, int, error)
	// GetByID devuelve (nil, nil) si la fila no existe o no es visible en el contexto.
	GetByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, e *T) (*T, error)
	// Update devuelve domain.ErrNotFound si la fila no es visible.
	Update(ctx context.Context, e *T) (*T, error)
	// SoftDelete devuelve false si la fila no es visible.
	SoftDelete(ctx context.Context, id string) (bool, error)
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository = Store[entity.Product]

// StaffRepository define el puerto de persistencia para Staff.
type StaffRepository = Store[entity.Staff]
