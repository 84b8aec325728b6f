package distribution_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/application/distribution"
	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	appinv "github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/memory"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

var staff = domain.Actor{UserID: "11111111-1111-1111-1111-111111111111", Role: entity.RoleStaff}

type env struct {
	ctx       context.Context
	dist      *distribution.UseCase
	products  *usecase.ProductUseCase
	movements *appinv.MovementUseCase
}

func newEnv() *env {
	store := memory.NewStore()
	tx := memory.NewTxRunner(store)
	productRepo := memory.NewProductRepository(store)
	var metrics ports.NopMetrics
	notifier := ports.NopNotifier{}
	return &env{
		ctx:       context.Background(),
		dist:      distribution.NewUseCase(tx, memory.NewDistributionRepository(store), notifier, metrics, logger.Nop()),
		products:  usecase.NewProductUseCase(productRepo, memory.NewSupplierRepository(store), tx, metrics),
		movements: appinv.NewMovementUseCase(tx, memory.NewStockMovementRepository(store), productRepo, notifier, metrics, logger.Nop()),
	}
}

func (e *env) product(t *testing.T, sku string, stock int64) string {
	t.Helper()
	p, err := e.products.Create(e.ctx, staff, dto.CreateProductRequest{
		SKU: sku, Name: "Producto " + sku, StockQuantity: stock, UnitPrice: decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)
	return p.ID
}

func (e *env) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := e.products.GetByID(e.ctx, id)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestDistribution_StockInsuficienteNoEscribeNada(t *testing.T) {
	e := newEnv()
	a := e.product(t, "DA-1", 5)
	b := e.product(t, "DB-1", 2)

	_, err := e.dist.Create(e.ctx, staff, dto.CreateDistributionRequest{
		Recipient:     "Hospital San Rafael",
		RecipientType: "hospital",
		Items: []dto.DistributionItemRequest{
			{ProductID: a, Quantity: 3},
			{ProductID: b, Quantity: 5},
		},
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	assert.Equal(t, int64(5), e.stock(t, a))
	assert.Equal(t, int64(2), e.stock(t, b))
	movs, err := e.movements.List(e.ctx, repository.MovementFilter{Source: entity.MovementSourceDistribution})
	require.NoError(t, err)
	assert.Empty(t, movs.Items)
	list, err := e.dist.List(e.ctx, repository.DistributionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestDistribution_DevolucionRestauraStock(t *testing.T) {
	e := newEnv()
	a := e.product(t, "DA-2", 10)

	d, err := e.dist.Create(e.ctx, staff, dto.CreateDistributionRequest{
		Recipient:     "Farmacia Central",
		RecipientType: "pharmacy",
		Items:         []dto.DistributionItemRequest{{ProductID: a, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", d.Status)
	assert.True(t, decimal.NewFromInt(10).Equal(d.TotalAmount))
	assert.Equal(t, int64(6), e.stock(t, a))

	for _, st := range []string{"processed", "shipped"} {
		d, err = e.dist.Transition(e.ctx, staff, d.ID, st)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(6), e.stock(t, a))

	d, err = e.dist.Transition(e.ctx, staff, d.ID, "returned")
	require.NoError(t, err)
	assert.Equal(t, "returned", d.Status)
	assert.Equal(t, int64(10), e.stock(t, a))

	rec, err := e.movements.Reconcile(e.ctx, a)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 3, rec.MovementCount)

	// Estado terminal: no se vuelve a reingresar.
	_, err = e.dist.Transition(e.ctx, staff, d.ID, "cancelled")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, int64(10), e.stock(t, a))
}

func TestDistribution_EntregadaNoRestaura(t *testing.T) {
	e := newEnv()
	a := e.product(t, "DA-3", 3)
	d, err := e.dist.Create(e.ctx, staff, dto.CreateDistributionRequest{
		Recipient: "Paciente 42", RecipientType: "patient",
		Items: []dto.DistributionItemRequest{{ProductID: a, Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = e.dist.Transition(e.ctx, staff, d.ID, "delivered")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	for _, st := range []string{"processed", "shipped", "delivered"} {
		_, err = e.dist.Transition(e.ctx, staff, d.ID, st)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(0), e.stock(t, a))

	got, err := e.dist.GetByID(e.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivered", got.Status)
}

func TestDistribution_Validaciones(t *testing.T) {
	e := newEnv()

	_, err := e.dist.Create(e.ctx, staff, dto.CreateDistributionRequest{RecipientType: "warehouse"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "recipient")
	assert.Contains(t, verr.Fields, "recipient_type")
	assert.Contains(t, verr.Fields, "items")

	_, err = e.dist.Transition(e.ctx, staff, "33333333-3333-3333-3333-333333333333", "shipped")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = e.dist.Transition(e.ctx, staff, "33333333-3333-3333-3333-333333333333", "lost")
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "status")
}
