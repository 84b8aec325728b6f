package procurement_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

// -----------------------------------------------------------------------------
// Recepción parcial y completa
// -----------------------------------------------------------------------------

func TestReceipt_ParcialDejaOrdenPartiallyReceived(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "AMX-500", 0, "0")
	b := f.product(t, "IBU-400", 0, "0")
	po := f.shippedOrder(t, map[string]int64{a.ID: 10, b.ID: 5}, a.ID, b.ID)

	rc, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items: []dto.ReceiptItemRequest{
			{PurchaseOrderItemID: po.Items[0].ID, ReceivedQuantity: 10, BatchNumber: "L-001", ExpiryDate: expiry()},
			{PurchaseOrderItemID: po.Items[1].ID, ReceivedQuantity: 3, BatchNumber: "L-002", ExpiryDate: expiry()},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "partially_received", rc.PurchaseOrderStatus)
	assert.Len(t, rc.Items, 2)
	assert.True(t, decimal.RequireFromString("52").Equal(rc.TotalAmount))

	got, err := f.orders.GetByID(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "partially_received", got.Status)
	assert.Equal(t, int64(10), got.Items[0].ReceivedQuantity)
	assert.Equal(t, int64(3), got.Items[1].ReceivedQuantity)
	assert.Equal(t, int64(2), got.Items[1].RemainingQuantity)
	for _, it := range got.Items {
		assert.LessOrEqual(t, it.ReceivedQuantity, it.Quantity)
	}

	pb, err := f.products.GetByID(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pb.StockQuantity)
	require.NotNil(t, pb.ExpiryDate)
}

func TestReceipt_SaldoExactoCompletaLaOrden(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "PCM-500", 0, "0")
	po := f.shippedOrder(t, map[string]int64{a.ID: 8}, a.ID)

	first, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{ProductID: a.ID, ReceivedQuantity: 5, BatchNumber: "B1", ExpiryDate: expiry()}},
	})
	require.NoError(t, err)
	assert.Equal(t, "partially_received", first.PurchaseOrderStatus)

	second, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{PurchaseOrderItemID: po.Items[0].ID, ReceivedQuantity: 3, BatchNumber: "B2", ExpiryDate: expiry()}},
	})
	require.NoError(t, err)
	assert.Equal(t, "received", second.PurchaseOrderStatus)

	list, err := f.receipts.ListByPurchaseOrder(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	// Una orden recibida ya no admite recepciones.
	_, err = f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{ProductID: a.ID, ReceivedQuantity: 1, BatchNumber: "B3", ExpiryDate: expiry()}},
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestReceipt_CostoPromedioPonderado(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "MET-850", 10, "2")
	po := f.shippedOrder(t, map[string]int64{a.ID: 10}, a.ID)

	_, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{ProductID: a.ID, ReceivedQuantity: 10, BatchNumber: "M1", ExpiryDate: expiry()}},
	})
	require.NoError(t, err)

	p, err := f.products.GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p.StockQuantity)
	assert.True(t, decimal.NewFromInt(3).Equal(p.Cost), "costo %s", p.Cost)

	rec, err := f.movements.Reconcile(f.ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 2, rec.MovementCount)
}

// -----------------------------------------------------------------------------
// Rechazos: nada se escribe
// -----------------------------------------------------------------------------

func TestReceipt_SinLoteSeRechazaSinMovimientos(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "AZI-500", 0, "0")
	b := f.product(t, "OME-20", 0, "0")
	po := f.shippedOrder(t, map[string]int64{a.ID: 4, b.ID: 4}, a.ID, b.ID)

	_, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items: []dto.ReceiptItemRequest{
			{ProductID: a.ID, ReceivedQuantity: 4, BatchNumber: "OK-1", ExpiryDate: expiry()},
			{ProductID: b.ID, ReceivedQuantity: 4, BatchNumber: "  ", ExpiryDate: expiry()},
		},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items[1].batch_number")

	assert.Equal(t, 0, f.movementCount(t, a.ID))
	assert.Equal(t, 0, f.movementCount(t, b.ID))
	got, err := f.orders.GetByID(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "shipped", got.Status)
	assert.Equal(t, int64(0), got.Items[0].ReceivedQuantity)
}

func TestReceipt_CantidadCeroSeRechaza(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "LOS-50", 0, "0")
	po := f.shippedOrder(t, map[string]int64{a.ID: 4}, a.ID)

	_, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{ProductID: a.ID, ReceivedQuantity: 0, BatchNumber: "Z", ExpiryDate: expiry()}},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "items[0].received_quantity")
	assert.Equal(t, 0, f.movementCount(t, a.ID))
}

func TestReceipt_ExcedeSaldoSumandoLineas(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "CET-10", 0, "0")
	po := f.shippedOrder(t, map[string]int64{a.ID: 5}, a.ID)

	_, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items: []dto.ReceiptItemRequest{
			{PurchaseOrderItemID: po.Items[0].ID, ReceivedQuantity: 3, BatchNumber: "X1", ExpiryDate: expiry()},
			{PurchaseOrderItemID: po.Items[0].ID, ReceivedQuantity: 3, BatchNumber: "X2", ExpiryDate: expiry()},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, 0, f.movementCount(t, a.ID))
}

func TestReceipt_ControlDeCalidadFallido(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "SAL-100", 0, "0")
	po := f.shippedOrder(t, map[string]int64{a.ID: 2}, a.ID)

	_, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: false, Notes: "cadena de frío rota"},
		Items:           []dto.ReceiptItemRequest{{ProductID: a.ID, ReceivedQuantity: 2, BatchNumber: "Q", ExpiryDate: expiry()}},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "quality_check.passed")
}

func TestReceipt_OrdenNoDespachada(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "DIC-50", 0, "0")
	po, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplier,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: a.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)

	_, err = f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{ProductID: a.ID, ReceivedQuantity: 3, BatchNumber: "D", ExpiryDate: expiry()}},
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, 0, f.movementCount(t, a.ID))
}

func TestReceipt_ReferenciaExternaExigeProducto(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "GEN-01", 0, "0")
	po, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplier,
		Items:      []dto.PurchaseOrderItemRequest{{ExternalRef: "JA-1001", ProductName: "Paracetamol JA", Quantity: 6, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	for _, st := range []struct {
		actor  domain.Actor
		status string
	}{{staff, "submitted"}, {admin, "approved"}, {staff, "shipped"}} {
		_, err = f.orders.TransitionStatus(f.ctx, st.actor, po.ID, st.status)
		require.NoError(t, err)
	}

	_, err = f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{PurchaseOrderItemID: po.Items[0].ID, ReceivedQuantity: 6, BatchNumber: "E", ExpiryDate: expiry()}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	rc, err := f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items: []dto.ReceiptItemRequest{{
			PurchaseOrderItemID: po.Items[0].ID, ProductID: a.ID, ReceivedQuantity: 6, BatchNumber: "E", ExpiryDate: expiry(),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "received", rc.PurchaseOrderStatus)
	assert.Equal(t, a.ID, rc.Items[0].ProductID)
}

func TestReceipt_ReferenciaExternaQuedaVinculadaAlPrimerProducto(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "GEN-02", 0, "0")
	b := f.product(t, "GEN-03", 0, "0")
	po, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplier,
		Items:      []dto.PurchaseOrderItemRequest{{ExternalRef: "JA-2002", ProductName: "Ibuprofeno JA", Quantity: 9, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	for _, st := range []struct {
		actor  domain.Actor
		status string
	}{{staff, "submitted"}, {admin, "approved"}, {staff, "shipped"}} {
		_, err = f.orders.TransitionStatus(f.ctx, st.actor, po.ID, st.status)
		require.NoError(t, err)
	}
	lineID := po.Items[0].ID

	_, err = f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{PurchaseOrderItemID: lineID, ProductID: a.ID, ReceivedQuantity: 3, BatchNumber: "V1", ExpiryDate: expiry()}},
	})
	require.NoError(t, err)

	got, err := f.orders.GetByID(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.Items[0].ProductID)

	// Con la línea vinculada basta indicar el producto.
	_, err = f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{ProductID: a.ID, ReceivedQuantity: 3, BatchNumber: "V2", ExpiryDate: expiry()}},
	})
	require.NoError(t, err)

	_, err = f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items:           []dto.ReceiptItemRequest{{PurchaseOrderItemID: lineID, ProductID: b.ID, ReceivedQuantity: 3, BatchNumber: "V3", ExpiryDate: expiry()}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	got, err = f.orders.GetByID(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "partially_received", got.Status)
	assert.Equal(t, int64(6), got.Items[0].ReceivedQuantity)
	assert.Equal(t, 2, f.movementCount(t, a.ID))
	assert.Equal(t, 0, f.movementCount(t, b.ID))
}

func TestReceipt_MismaLineaConProductosDistintosEnUnaRecepcion(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "GEN-04", 0, "0")
	b := f.product(t, "GEN-05", 0, "0")
	po, err := f.orders.Create(f.ctx, staff, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplier,
		Items:      []dto.PurchaseOrderItemRequest{{ExternalRef: "JA-3003", ProductName: "Cetirizina JA", Quantity: 4, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	for _, st := range []struct {
		actor  domain.Actor
		status string
	}{{staff, "submitted"}, {admin, "approved"}, {staff, "shipped"}} {
		_, err = f.orders.TransitionStatus(f.ctx, st.actor, po.ID, st.status)
		require.NoError(t, err)
	}

	_, err = f.receipts.Create(f.ctx, staff, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
		Items: []dto.ReceiptItemRequest{
			{PurchaseOrderItemID: po.Items[0].ID, ProductID: a.ID, ReceivedQuantity: 2, BatchNumber: "W1", ExpiryDate: expiry()},
			{PurchaseOrderItemID: po.Items[0].ID, ProductID: b.ID, ReceivedQuantity: 2, BatchNumber: "W2", ExpiryDate: expiry()},
		},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	got, err := f.orders.GetByID(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items[0].ProductID)
	assert.Equal(t, int64(0), got.Items[0].ReceivedQuantity)
	assert.Equal(t, 0, f.movementCount(t, a.ID))
}
