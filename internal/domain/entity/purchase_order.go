package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Apothecary-api/internal/domain"
)

// POStatus estado de una orden de compra.
type POStatus string

const (
	POStatusDraft             POStatus = "draft"
	POStatusSubmitted         POStatus = "submitted"
	POStatusApproved          POStatus = "approved"
	POStatusShipped           POStatus = "shipped"
	POStatusPartiallyReceived POStatus = "partially_received"
	POStatusReceived          POStatus = "received"
	POStatusCancelled         POStatus = "cancelled"
)

// POStatuses lista todos los estados válidos.
var POStatuses = []POStatus{
	POStatusDraft, POStatusSubmitted, POStatusApproved, POStatusShipped,
	POStatusPartiallyReceived, POStatusReceived, POStatusCancelled,
}

// poTransitions tabla de transiciones directas (PATCH de estado).
// received y partially_received solo se alcanzan registrando una recepción.
var poTransitions = map[POStatus][]POStatus{
	POStatusDraft:             {POStatusSubmitted, POStatusCancelled},
	POStatusSubmitted:         {POStatusApproved, POStatusCancelled},
	POStatusApproved:          {POStatusShipped},
	POStatusShipped:           nil,
	POStatusPartiallyReceived: nil,
	POStatusReceived:          nil,
	POStatusCancelled:         nil,
}

// ParsePOStatus valida un estado recibido como texto.
func ParsePOStatus(s string) (POStatus, bool) {
	st := POStatus(s)
	_, ok := poTransitions[st]
	return st, ok
}

// IsTerminal indica si no hay salida posible desde el estado.
func (s POStatus) IsTerminal() bool {
	return s == POStatusReceived || s == POStatusCancelled
}

// IsReceiptDriven indica si el estado solo se alcanza vía recepción de mercancía.
func (s POStatus) IsReceiptDriven() bool {
	return s == POStatusReceived || s == POStatusPartiallyReceived
}

// CanReceive indica si se pueden registrar recepciones contra la orden.
func (s POStatus) CanReceive() bool {
	return s == POStatusShipped || s == POStatusPartiallyReceived
}

// CanTransitionTo indica si from -> to es una transición directa permitida.
func (s POStatus) CanTransitionTo(to POStatus) bool {
	for _, allowed := range poTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PurchaseOrder orden de compra a un proveedor.
type PurchaseOrder struct {
	ID                   string
	OrderNumber          string
	SupplierID           string
	Status               POStatus
	Items                []PurchaseOrderItem
	TotalAmount          decimal.Decimal
	ExpectedDeliveryDate *time.Time
	Notes                string
	CreatedBy            string
	ApprovedBy           string
	ApprovedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PurchaseOrderItem línea de la orden. ProductID o ExternalRef (código de catálogo externo).
type PurchaseOrderItem struct {
	ID               string
	PurchaseOrderID  string
	ProductID        string
	ExternalRef      string
	ProductName      string
	Quantity         int64
	UnitPrice        decimal.Decimal
	ReceivedQuantity int64
}

// Remaining cantidad pendiente por recibir.
func (i PurchaseOrderItem) Remaining() int64 {
	return i.Quantity - i.ReceivedQuantity
}

// Transition aplica un cambio de estado directo. No cubre los estados de recepción.
func (po *PurchaseOrder) Transition(to POStatus, now time.Time) error {
	if !po.Status.CanTransitionTo(to) {
		return &domain.TransitionError{Entity: "purchase_order", From: string(po.Status), To: string(to)}
	}
	po.Status = to
	po.UpdatedAt = now
	return nil
}

// ComputeTotal recalcula TotalAmount = Σ cantidad × precio.
func (po *PurchaseOrder) ComputeTotal() {
	total := decimal.Zero
	for _, it := range po.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
	}
	po.TotalAmount = total
}

// Item devuelve la línea con el ID dado.
func (po *PurchaseOrder) Item(id string) (*PurchaseOrderItem, bool) {
	for i := range po.Items {
		if po.Items[i].ID == id {
			return &po.Items[i], true
		}
	}
	return nil, false
}

// ItemsByProduct devuelve las líneas con saldo pendiente para un producto.
func (po *PurchaseOrder) ItemsByProduct(productID string) []*PurchaseOrderItem {
	var out []*PurchaseOrderItem
	for i := range po.Items {
		if po.Items[i].ProductID == productID && po.Items[i].Remaining() > 0 {
			out = append(out, &po.Items[i])
		}
	}
	return out
}

// RecomputeReceiptStatus fija received si todas las líneas están completas, si no partially_received.
func (po *PurchaseOrder) RecomputeReceiptStatus(now time.Time) {
	complete := true
	for _, it := range po.Items {
		if it.ReceivedQuantity < it.Quantity {
			complete = false
			break
		}
	}
	if complete {
		po.Status = POStatusReceived
	} else {
		po.Status = POStatusPartiallyReceived
	}
	po.UpdatedAt = now
}
