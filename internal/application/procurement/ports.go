package procurement

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

// TxRunner inicia una transacción con repos de inventario y compras (recepciones y cambios de estado).
type TxRunner interface {
	RunProcurement(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		poRepo repository.PurchaseOrderRepository,
		receiptRepo repository.PurchaseReceiptRepository,
	) error) error
}
