package memory

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/application/distribution"
	"github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/procurement"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner    = (*TxRunner)(nil)
	_ procurement.TxRunner  = (*TxRunner)(nil)
	_ distribution.TxRunner = (*TxRunner)(nil)
)

// TxRunner transacciones copy-on-write: fn trabaja sobre un clon del estado que solo reemplaza al
// confirmado si fn termina sin error. Las transacciones se serializan.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run transacción con repos de movimientos y productos.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.inTx(ctx, func(v txView) error {
		return fn(&StockMovementRepo{a: v}, &ProductRepo{a: v})
	})
}

// RunProcurement agrega órdenes de compra y recepciones.
func (r *TxRunner) RunProcurement(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	poRepo repository.PurchaseOrderRepository,
	receiptRepo repository.PurchaseReceiptRepository,
) error) error {
	return r.inTx(ctx, func(v txView) error {
		return fn(&StockMovementRepo{a: v}, &ProductRepo{a: v}, &PurchaseOrderRepo{a: v}, &PurchaseReceiptRepo{a: v})
	})
}

// RunDistribution agrega distribuciones.
func (r *TxRunner) RunDistribution(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	distRepo repository.DistributionRepository,
) error) error {
	return r.inTx(ctx, func(v txView) error {
		return fn(&StockMovementRepo{a: v}, &ProductRepo{a: v}, &DistributionRepo{a: v})
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(v txView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.RLock()
	work := r.s.st.clone()
	r.s.mu.RUnlock()

	if err := fn(txView{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	r.s.st = work
	r.s.mu.Unlock()
	return nil
}
