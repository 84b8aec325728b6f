package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Apothecary-api/internal/application/distribution"
	"github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/procurement"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/memory"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Apothecary-api/pkg/config"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

type txRunner interface {
	inventory.TxRunner
	procurement.TxRunner
	distribution.TxRunner
}

type storage struct {
	tx            txRunner
	products      repository.ProductRepository
	suppliers     repository.SupplierRepository
	orders        repository.PurchaseOrderRepository
	receipts      repository.PurchaseReceiptRepository
	movements     repository.StockMovementRepository
	distributions repository.DistributionRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	close         func()
}

// openStorage arma los repositorios según STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	switch cfg.App.StorageDriver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			tx:            memory.NewTxRunner(s),
			products:      memory.NewProductRepository(s),
			suppliers:     memory.NewSupplierRepository(s),
			orders:        memory.NewPurchaseOrderRepository(s),
			receipts:      memory.NewPurchaseReceiptRepository(s),
			movements:     memory.NewStockMovementRepository(s),
			distributions: memory.NewDistributionRepository(s),
			notifications: memory.NewNotificationRepository(s),
			users:         memory.NewUserRepository(s),
			close:         func() {},
		}, nil
	case "", "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migraciones: %w", err)
			}
			log.Info().Msg("migraciones aplicadas")
		}
		return postgresStorage(pool), nil
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER desconocido: %q (postgres | memory)", cfg.App.StorageDriver)
	}
}

func postgresStorage(pool *pgxpool.Pool) *storage {
	return &storage{
		tx:            postgres.NewTxRunner(pool),
		products:      postgres.NewProductRepository(pool),
		suppliers:     postgres.NewSupplierRepository(pool),
		orders:        postgres.NewPurchaseOrderRepository(pool),
		receipts:      postgres.NewPurchaseReceiptRepository(pool),
		movements:     postgres.NewStockMovementRepository(pool),
		distributions: postgres.NewDistributionRepository(pool),
		notifications: postgres.NewNotificationRepository(pool),
		users:         postgres.NewUserRepository(pool),
		close:         pool.Close,
	}
}
