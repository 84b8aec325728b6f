package distribution

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

// TxRunner inicia una transacción con repos de inventario y distribución.
type TxRunner interface {
	RunDistribution(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		distRepo repository.DistributionRepository,
	) error) error
}
