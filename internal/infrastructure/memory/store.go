// Package memory implementa los repositorios en memoria: modo demo (STORAGE_DRIVER=memory) y tests
// de casos de uso sin PostgreSQL.
package memory

import (
	"sync"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// state es la base de datos completa. Los repos nunca exponen punteros internos: todo entra y
// sale clonado.
type state struct {
	products      map[string]*entity.Product
	suppliers     map[string]*entity.Supplier
	orders        map[string]*entity.PurchaseOrder
	receipts      map[string]*entity.PurchaseReceipt
	movements     []*entity.StockMovement
	distributions map[string]*entity.DistributionOrder
	notifications map[string]*entity.Notification
	users         map[string]*entity.User
}

func newState() *state {
	return &state{
		products:      make(map[string]*entity.Product),
		suppliers:     make(map[string]*entity.Supplier),
		orders:        make(map[string]*entity.PurchaseOrder),
		receipts:      make(map[string]*entity.PurchaseReceipt),
		distributions: make(map[string]*entity.DistributionOrder),
		notifications: make(map[string]*entity.Notification),
		users:         make(map[string]*entity.User),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = cloneProduct(v)
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = cloneSupplier(v)
	}
	for k, v := range s.orders {
		c.orders[k] = clonePurchaseOrder(v)
	}
	for k, v := range s.receipts {
		c.receipts[k] = cloneReceipt(v)
	}
	c.movements = make([]*entity.StockMovement, len(s.movements))
	for i, m := range s.movements {
		c.movements[i] = cloneMovement(m)
	}
	for k, v := range s.distributions {
		c.distributions[k] = cloneDistribution(v)
	}
	for k, v := range s.notifications {
		c.notifications[k] = cloneNotification(v)
	}
	for k, v := range s.users {
		c.users[k] = cloneUser(v)
	}
	return c
}

// Store contenedor compartido por todos los repos en memoria.
// txMu serializa escritores (transacciones y escrituras sueltas); mu protege el puntero a state
// frente a lectores concurrentes.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// access es la vista sobre la que trabajan los repos: el estado confirmado o el clon de una tx.
type access interface {
	read(fn func(st *state))
	write(fn func(st *state) error) error
}

// committed opera directamente sobre el estado confirmado.
type committed struct{ s *Store }

func (c committed) read(fn func(st *state)) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	fn(c.s.st)
}

func (c committed) write(fn func(st *state) error) error {
	c.s.txMu.Lock()
	defer c.s.txMu.Unlock()
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return fn(c.s.st)
}

// txView opera sobre el clon privado de una transacción; el runner ya tiene txMu.
type txView struct{ st *state }

func (t txView) read(fn func(st *state))              { fn(t.st) }
func (t txView) write(fn func(st *state) error) error { return fn(t.st) }

// -----------------------------------------------------------------------------
// Clonado
// -----------------------------------------------------------------------------

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	c.ExpiryDate = cloneTime(p.ExpiryDate)
	return &c
}

func cloneSupplier(s *entity.Supplier) *entity.Supplier {
	c := *s
	return &c
}

func clonePurchaseOrder(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	c := *po
	c.Items = append([]entity.PurchaseOrderItem(nil), po.Items...)
	c.ExpectedDeliveryDate = cloneTime(po.ExpectedDeliveryDate)
	c.ApprovedAt = cloneTime(po.ApprovedAt)
	return &c
}

func cloneReceipt(r *entity.PurchaseReceipt) *entity.PurchaseReceipt {
	c := *r
	c.Items = append([]entity.PurchaseReceiptItem(nil), r.Items...)
	return &c
}

func cloneMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	return &c
}

func cloneDistribution(d *entity.DistributionOrder) *entity.DistributionOrder {
	c := *d
	c.Items = append([]entity.DistributionItem(nil), d.Items...)
	return &c
}

func cloneNotification(n *entity.Notification) *entity.Notification {
	c := *n
	return &c
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

// page aplica limit/offset sobre un slice ya ordenado; limit <= 0 = sin límite.
func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
