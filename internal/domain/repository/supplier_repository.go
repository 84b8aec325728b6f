package repository

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// SupplierFilter criterios de listado de proveedores.
type SupplierFilter struct {
	Search        string
	Status        string
	JanAushadhi   *bool
	Limit, Offset int
}

// SupplierRepository define el puerto de persistencia para Supplier.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	Update(ctx context.Context, supplier *entity.Supplier) error
	List(ctx context.Context, filter SupplierFilter) ([]*entity.Supplier, error)
	// Delete devuelve domain.ErrConflict si hay órdenes de compra que lo referencian.
	Delete(ctx context.Context, id string) error
}
