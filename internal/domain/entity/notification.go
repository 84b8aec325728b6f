package entity

import "time"

// Tipos de notificación.
const (
	NotificationLowStock      = "low_stock"
	NotificationExpiry        = "expiry"
	NotificationPurchaseOrder = "purchase_order"
	NotificationDistribution  = "distribution"
	NotificationSystem        = "system"
)

// Notification aviso dentro de la aplicación. UserID vacío = difusión a todo el personal.
type Notification struct {
	ID          string
	UserID      string
	Type        string
	Title       string
	Message     string
	ReferenceID string
	Read        bool
	CreatedAt   time.Time
}
