package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// ProductFilter criterios de listado de productos.
type ProductFilter struct {
	Search     string // coincide con nombre o SKU
	Category   string
	SupplierID string
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetBySKU devuelven (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (solo con repos atados a tx).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// Update modifica datos descriptivos y el vencimiento informado; no toca stock ni costo.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateInventory persiste stock, costo y vencimiento (solo el motor de movimientos).
	UpdateInventory(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
	ListExpiringBefore(ctx context.Context, before time.Time) ([]*entity.Product, error)
	// Delete devuelve domain.ErrConflict si el producto tiene movimientos u órdenes asociadas.
	Delete(ctx context.Context, id string) error
}
