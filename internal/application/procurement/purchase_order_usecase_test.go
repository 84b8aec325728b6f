package procurement_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

func TestPurchaseOrder_CreateYGetConservanLineas(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A-1", 0, "0")
	b := f.product(t, "B-1", 0, "0")

	in := dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplier,
		Items: []dto.PurchaseOrderItemRequest{
			{ProductID: a.ID, Quantity: 12, UnitPrice: decimal.RequireFromString("1.25")},
			{ProductID: b.ID, Quantity: 7, UnitPrice: decimal.RequireFromString("3.10")},
			{ExternalRef: "JA-77", ProductName: "Genérico", Quantity: 1, UnitPrice: decimal.Zero},
		},
	}
	created, err := f.orders.Create(f.ctx, staff, in)
	require.NoError(t, err)
	assert.Equal(t, "draft", created.Status)
	assert.Regexp(t, `^PO-\d{8}-[0-9A-F]{6}$`, created.OrderNumber)

	got, err := f.orders.GetByID(f.ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, len(in.Items))
	for i, it := range in.Items {
		assert.Equal(t, it.Quantity, got.Items[i].Quantity)
		assert.True(t, it.UnitPrice.Equal(got.Items[i].UnitPrice))
		assert.Equal(t, int64(0), got.Items[i].ReceivedQuantity)
	}
	assert.True(t, decimal.RequireFromString("36.70").Equal(got.TotalAmount))
}

func TestPurchaseOrder_CreateValidaLineasYProveedor(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{SupplierID: f.supplier})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items")

	_, err = f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
		SupplierID: "33333333-3333-3333-3333-333333333333",
		Items:      []dto.PurchaseOrderItemRequest{{ExternalRef: "X", Quantity: 1}},
	})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "supplier_id")

	_, err = f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplier,
		Items:      []dto.PurchaseOrderItemRequest{{Quantity: 1}},
	})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items[0].product_id")
}

// -----------------------------------------------------------------------------
// Cambios de estado
// -----------------------------------------------------------------------------

func TestPurchaseOrder_TransicionesYPermisos(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "T-1", 0, "0")
	po, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplier,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: a.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)

	// draft -> approved no está en la tabla.
	_, err = f.orders.TransitionStatus(f.ctx, admin, po.ID, "approved")
	var terr *domain.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, err.Error(), "draft -> approved")

	_, err = f.orders.TransitionStatus(f.ctx, staff, po.ID, "draft")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "from == to no es un no-op")

	_, err = f.orders.TransitionStatus(f.ctx, staff, po.ID, "submitted")
	require.NoError(t, err)

	_, err = f.orders.TransitionStatus(f.ctx, staff, po.ID, "approved")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	got, err := f.orders.GetByID(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "submitted", got.Status)

	approved, err := f.orders.TransitionStatus(f.ctx, admin, po.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, admin.UserID, approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = f.orders.TransitionStatus(f.ctx, staff, po.ID, "received")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "status")

	_, err = f.orders.TransitionStatus(f.ctx, staff, po.ID, "cancelled")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	_, err = f.orders.TransitionStatus(f.ctx, staff, po.ID, "lost")
	require.True(t, errors.As(err, &verr))

	shipped, err := f.orders.TransitionStatus(f.ctx, staff, po.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, "shipped", shipped.Status)

	// Un aviso al creador por cada transición aplicada.
	assert.Equal(t, 3, f.notes.count())
}

func TestPurchaseOrder_EdicionYBorradoSoloEnBorrador(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "E-1", 0, "0")
	po, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplier,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: a.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	notes := "entregar en bodega 2"
	updated, err := f.orders.Update(f.ctx, staff, po.ID, dto.UpdatePurchaseOrderRequest{
		Notes: &notes,
		Items: []dto.PurchaseOrderItemRequest{{ProductID: a.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	require.Len(t, updated.Items, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(updated.TotalAmount))

	_, err = f.orders.TransitionStatus(f.ctx, staff, po.ID, "submitted")
	require.NoError(t, err)
	_, err = f.orders.Update(f.ctx, staff, po.ID, dto.UpdatePurchaseOrderRequest{Notes: &notes})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.True(t, errors.Is(f.orders.Delete(f.ctx, po.ID), domain.ErrConflict))

	_, err = f.orders.TransitionStatus(f.ctx, staff, po.ID, "cancelled")
	require.NoError(t, err)
	require.NoError(t, f.orders.Delete(f.ctx, po.ID))
	_, err = f.orders.GetByID(f.ctx, po.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPurchaseOrder_ListFiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "L-1", 0, "0")
	for i := 0; i < 3; i++ {
		_, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
			SupplierID: f.supplier,
			Items:      []dto.PurchaseOrderItemRequest{{ProductID: a.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
		})
		require.NoError(t, err)
	}
	f.shippedOrder(t, map[string]int64{a.ID: 1}, a.ID)

	drafts, err := f.orders.List(f.ctx, repository.PurchaseOrderFilter{Status: "draft"})
	require.NoError(t, err)
	assert.Len(t, drafts.Items, 3)

	shipped, err := f.orders.List(f.ctx, repository.PurchaseOrderFilter{Status: "shipped", SupplierID: f.supplier})
	require.NoError(t, err)
	assert.Len(t, shipped.Items, 1)

	_, err = f.orders.List(f.ctx, repository.PurchaseOrderFilter{Status: "nope"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
