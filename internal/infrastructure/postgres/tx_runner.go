package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run transacción con repos de movimientos y productos (ajustes, alta de producto).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewStockMovementRepository(tx), NewProductRepository(tx))
	})
}

// RunProcurement agrega los repos de órdenes de compra y recepciones.
func (r *TxRunner) RunProcurement(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	poRepo repository.PurchaseOrderRepository,
	receiptRepo repository.PurchaseReceiptRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(
			NewStockMovementRepository(tx),
			NewProductRepository(tx),
			NewPurchaseOrderRepository(tx),
			NewPurchaseReceiptRepository(tx),
		)
	})
}

// RunDistribution agrega el repo de distribuciones.
func (r *TxRunner) RunDistribution(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	distRepo repository.DistributionRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewStockMovementRepository(tx), NewProductRepository(tx), NewDistributionRepository(tx))
	})
}

// inTx hace Commit si fn termina bien; en cualquier otro caso Rollback.
func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
