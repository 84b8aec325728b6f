package procurement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	appinv "github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/application/procurement"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/memory"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

var (
	staff = domain.Actor{UserID: "11111111-1111-1111-1111-111111111111", Role: entity.RoleStaff}
	admin = domain.Actor{UserID: "22222222-2222-2222-2222-222222222222", Role: entity.RoleAdmin}
)

// recorder guarda los avisos emitidos después del commit.
type recorder struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (r *recorder) Notify(_ context.Context, n *entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	orders    *procurement.PurchaseOrderUseCase
	receipts  *procurement.ReceiptUseCase
	products  *usecase.ProductUseCase
	movements *appinv.MovementUseCase
	notes     *recorder
	supplier  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	tx := memory.NewTxRunner(store)
	notes := &recorder{}
	var metrics ports.NopMetrics

	productRepo := memory.NewProductRepository(store)
	supplierRepo := memory.NewSupplierRepository(store)
	poRepo := memory.NewPurchaseOrderRepository(store)
	movRepo := memory.NewStockMovementRepository(store)

	f := &fixture{
		ctx:       context.Background(),
		store:     store,
		orders:    procurement.NewPurchaseOrderUseCase(tx, poRepo, supplierRepo, productRepo, notes, metrics, logger.Nop()),
		receipts:  procurement.NewReceiptUseCase(tx, poRepo, memory.NewPurchaseReceiptRepository(store), notes, metrics, logger.Nop()),
		products:  usecase.NewProductUseCase(productRepo, supplierRepo, tx, metrics),
		movements: appinv.NewMovementUseCase(tx, movRepo, productRepo, notes, metrics, logger.Nop()),
		notes:     notes,
	}
	s, err := usecase.NewSupplierUseCase(supplierRepo).Create(f.ctx, dto.CreateSupplierRequest{Name: "Distribuidora Norte"})
	require.NoError(t, err)
	f.supplier = s.ID
	return f
}

func (f *fixture) product(t *testing.T, sku string, stock int64, cost string) *dto.ProductResponse {
	t.Helper()
	p, err := f.products.Create(f.ctx, staff, dto.CreateProductRequest{
		SKU:           sku,
		Name:          "Producto " + sku,
		StockQuantity: stock,
		ReorderLevel:  2,
		UnitPrice:     decimal.RequireFromString("9.50"),
		Cost:          decimal.RequireFromString(cost),
	})
	require.NoError(t, err)
	return p
}

// shippedOrder crea una orden con las cantidades dadas y la lleva hasta shipped.
func (f *fixture) shippedOrder(t *testing.T, lines map[string]int64, order ...string) *dto.PurchaseOrderResponse {
	t.Helper()
	items := make([]dto.PurchaseOrderItemRequest, 0, len(order))
	for _, productID := range order {
		items = append(items, dto.PurchaseOrderItemRequest{
			ProductID: productID,
			Quantity:  lines[productID],
			UnitPrice: decimal.RequireFromString("4.00"),
		})
	}
	po, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{SupplierID: f.supplier, Items: items})
	require.NoError(t, err)
	for _, step := range []struct {
		actor  domain.Actor
		status string
	}{
		{staff, "submitted"},
		{admin, "approved"},
		{staff, "shipped"},
	} {
		po, err = f.orders.TransitionStatus(f.ctx, step.actor, po.ID, step.status)
		require.NoError(t, err)
	}
	return po
}

func (f *fixture) movementCount(t *testing.T, productID string) int {
	t.Helper()
	res, err := f.movements.Reconcile(f.ctx, productID)
	require.NoError(t, err)
	return res.MovementCount
}

func expiry() *time.Time {
	t := time.Now().AddDate(1, 0, 0)
	return &t
}
