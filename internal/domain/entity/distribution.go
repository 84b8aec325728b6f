package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Apothecary-api/internal/domain"
)

// DistributionStatus estado de una orden de distribución.
type DistributionStatus string

const (
	DistributionPending   DistributionStatus = "pending"
	DistributionProcessed DistributionStatus = "processed"
	DistributionShipped   DistributionStatus = "shipped"
	DistributionDelivered DistributionStatus = "delivered"
	DistributionReturned  DistributionStatus = "returned"
	DistributionCancelled DistributionStatus = "cancelled"
)

// Tipos de destinatario.
const (
	RecipientPharmacy = "pharmacy"
	RecipientHospital = "hospital"
	RecipientClinic   = "clinic"
	RecipientPatient  = "patient"
)

// DistributionStatuses lista todos los estados válidos.
var DistributionStatuses = []DistributionStatus{
	DistributionPending, DistributionProcessed, DistributionShipped,
	DistributionDelivered, DistributionReturned, DistributionCancelled,
}

var distributionTransitions = map[DistributionStatus][]DistributionStatus{
	DistributionPending:   {DistributionProcessed, DistributionReturned, DistributionCancelled},
	DistributionProcessed: {DistributionShipped, DistributionReturned, DistributionCancelled},
	DistributionShipped:   {DistributionDelivered, DistributionReturned, DistributionCancelled},
	DistributionDelivered: nil,
	DistributionReturned:  nil,
	DistributionCancelled: nil,
}

// ParseDistributionStatus valida un estado recibido como texto.
func ParseDistributionStatus(s string) (DistributionStatus, bool) {
	st := DistributionStatus(s)
	_, ok := distributionTransitions[st]
	return st, ok
}

// IsTerminal indica si no hay salida posible desde el estado.
func (s DistributionStatus) IsTerminal() bool {
	return len(distributionTransitions[s]) == 0
}

// RestoresStock indica si llegar a este estado devuelve el stock despachado.
func (s DistributionStatus) RestoresStock() bool {
	return s == DistributionReturned || s == DistributionCancelled
}

// CanTransitionTo indica si from -> to está permitido.
func (s DistributionStatus) CanTransitionTo(to DistributionStatus) bool {
	for _, allowed := range distributionTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidRecipientType valida el tipo de destinatario.
func IsValidRecipientType(t string) bool {
	switch t {
	case RecipientPharmacy, RecipientHospital, RecipientClinic, RecipientPatient:
		return true
	}
	return false
}

// DistributionOrder despacho de stock a un destinatario.
type DistributionOrder struct {
	ID            string
	OrderNumber   string
	Recipient     string
	RecipientType string
	Items         []DistributionItem
	Status        DistributionStatus
	Notes         string
	TotalAmount   decimal.Decimal
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DistributionItem línea despachada.
type DistributionItem struct {
	ID             string
	DistributionID string
	ProductID      string
	ProductName    string
	Quantity       int64
	UnitPrice      decimal.Decimal
}

// Transition aplica un cambio de estado validado contra la tabla.
func (d *DistributionOrder) Transition(to DistributionStatus, now time.Time) error {
	if !d.Status.CanTransitionTo(to) {
		return &domain.TransitionError{Entity: "distribution", From: string(d.Status), To: string(to)}
	}
	d.Status = to
	d.UpdatedAt = now
	return nil
}

// ComputeTotal recalcula TotalAmount.
func (d *DistributionOrder) ComputeTotal() {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
	}
	d.TotalAmount = total
}
