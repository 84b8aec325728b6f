package repository

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// DistributionFilter criterios de listado de distribuciones.
type DistributionFilter struct {
	Status        string
	RecipientType string
	Limit, Offset int
}

// DistributionRepository persiste órdenes de distribución con sus líneas.
type DistributionRepository interface {
	Create(ctx context.Context, order *entity.DistributionOrder) error
	GetByID(ctx context.Context, id string) (*entity.DistributionOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.DistributionOrder, error)
	List(ctx context.Context, filter DistributionFilter) ([]*entity.DistributionOrder, error)
	UpdateStatus(ctx context.Context, order *entity.DistributionOrder) error
}
