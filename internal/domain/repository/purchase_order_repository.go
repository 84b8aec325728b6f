package repository

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// PurchaseOrderFilter criterios de listado de órdenes de compra.
type PurchaseOrderFilter struct {
	Status     string
	SupplierID string
	Limit      int
	Offset     int
}

// PurchaseOrderRepository persiste órdenes de compra junto con sus líneas.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	List(ctx context.Context, filter PurchaseOrderFilter) ([]*entity.PurchaseOrder, error)
	// Update persiste cabecera (estado, notas, fechas, total, aprobación).
	Update(ctx context.Context, po *entity.PurchaseOrder) error
	// ReplaceItems reemplaza todas las líneas (solo órdenes en borrador).
	ReplaceItems(ctx context.Context, poID string, items []entity.PurchaseOrderItem) error
	// UpdateItemReceipt fija la cantidad recibida y vincula la línea al producto ingresado.
	// Una línea ya vinculada a otro producto no se modifica.
	UpdateItemReceipt(ctx context.Context, itemID, productID string, receivedQuantity int64) error
	Delete(ctx context.Context, id string) error
}

// PurchaseReceiptRepository persiste recepciones (inmutables: sin Update ni Delete).
type PurchaseReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.PurchaseReceipt) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseReceipt, error)
	ListByPurchaseOrder(ctx context.Context, poID string) ([]*entity.PurchaseReceipt, error)
	List(ctx context.Context, limit, offset int) ([]*entity.PurchaseReceipt, error)
}
