package entity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

var allowedPO = map[entity.POStatus][]entity.POStatus{
	entity.POStatusDraft:     {entity.POStatusSubmitted, entity.POStatusCancelled},
	entity.POStatusSubmitted: {entity.POStatusApproved, entity.POStatusCancelled},
	entity.POStatusApproved:  {entity.POStatusShipped},
}

func isAllowed(from, to entity.POStatus) bool {
	for _, s := range allowedPO[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Todas las parejas fuera del grafo fallan y dejan el estado intacto.
func TestPurchaseOrder_Transition_TablaCompleta(t *testing.T) {
	now := time.Now()
	for _, from := range entity.POStatuses {
		for _, to := range entity.POStatuses {
			po := &entity.PurchaseOrder{Status: from}
			err := po.Transition(to, now)
			if isAllowed(from, to) {
				require.NoError(t, err, "%s -> %s debe permitirse", from, to)
				assert.Equal(t, to, po.Status)
				continue
			}
			require.Error(t, err, "%s -> %s debe rechazarse", from, to)
			assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
			assert.Contains(t, err.Error(), string(from)+" -> "+string(to))
			assert.Equal(t, from, po.Status, "el estado no cambia tras un rechazo")
		}
	}
}

func TestPOStatus_Predicados(t *testing.T) {
	for _, s := range entity.POStatuses {
		_, ok := entity.ParsePOStatus(string(s))
		assert.True(t, ok, "%s debe ser un estado válido", s)
	}
	_, ok := entity.ParsePOStatus("closed")
	assert.False(t, ok)

	assert.True(t, entity.POStatusShipped.CanReceive())
	assert.True(t, entity.POStatusPartiallyReceived.CanReceive())
	assert.False(t, entity.POStatusApproved.CanReceive())
	assert.True(t, entity.POStatusReceived.IsTerminal())
	assert.True(t, entity.POStatusCancelled.IsTerminal())
	assert.True(t, entity.POStatusPartiallyReceived.IsReceiptDriven())
}

func TestPurchaseOrder_RecomputeReceiptStatus(t *testing.T) {
	po := &entity.PurchaseOrder{
		Status: entity.POStatusShipped,
		Items: []entity.PurchaseOrderItem{
			{ID: "a", Quantity: 10, ReceivedQuantity: 10},
			{ID: "b", Quantity: 5, ReceivedQuantity: 3},
		},
	}
	po.RecomputeReceiptStatus(time.Now())
	assert.Equal(t, entity.POStatusPartiallyReceived, po.Status)

	po.Items[1].ReceivedQuantity = 5
	po.RecomputeReceiptStatus(time.Now())
	assert.Equal(t, entity.POStatusReceived, po.Status)
}

func TestPurchaseOrder_ComputeTotal(t *testing.T) {
	po := &entity.PurchaseOrder{Items: []entity.PurchaseOrderItem{
		{Quantity: 10, UnitPrice: decimal.RequireFromString("2.50")},
		{Quantity: 3, UnitPrice: decimal.RequireFromString("10")},
	}}
	po.ComputeTotal()
	assert.True(t, decimal.RequireFromString("55").Equal(po.TotalAmount))
}

func TestPurchaseOrder_ItemsByProduct_SoloConSaldo(t *testing.T) {
	po := &entity.PurchaseOrder{Items: []entity.PurchaseOrderItem{
		{ID: "a", ProductID: "p1", Quantity: 10, ReceivedQuantity: 10},
		{ID: "b", ProductID: "p1", Quantity: 5},
		{ID: "c", ProductID: "p2", Quantity: 5},
	}}
	items := po.ItemsByProduct("p1")
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
}
