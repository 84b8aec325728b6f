package entity

import "time"

// Estados de proveedor.
const (
	SupplierStatusActive   = "active"
	SupplierStatusInactive = "inactive"
)

// Supplier representa un proveedor. IsJanAushadhi marca proveedores del programa
// de genéricos JanAushadhi (catálogo alternativo).
type Supplier struct {
	ID            string
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	IsJanAushadhi bool
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
