package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra en memoria.
type PurchaseOrderRepo struct {
	a access
}

// NewPurchaseOrderRepository repo sobre el estado confirmado.
func NewPurchaseOrderRepository(s *Store) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{a: committed{s}}
}

func (r *PurchaseOrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.orders[po.ID]; ok {
			return fmt.Errorf("%w: orden %s", domain.ErrDuplicate, po.ID)
		}
		if _, ok := st.suppliers[po.SupplierID]; !ok {
			return domain.NewValidationError("supplier_id", "el proveedor no existe")
		}
		if err := checkItemProducts(st, po.Items); err != nil {
			return err
		}
		st.orders[po.ID] = clonePurchaseOrder(po)
		return nil
	})
}

func checkItemProducts(st *state, items []entity.PurchaseOrderItem) error {
	for i, it := range items {
		if it.ProductID == "" {
			continue
		}
		if _, ok := st.products[it.ProductID]; !ok {
			return domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "el producto no existe")
		}
	}
	return nil
}

func (r *PurchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	r.a.read(func(st *state) {
		if po, ok := st.orders[id]; ok {
			out = clonePurchaseOrder(po)
		}
	})
	return out, nil
}

func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *PurchaseOrderRepo) List(_ context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	var list []*entity.PurchaseOrder
	r.a.read(func(st *state) {
		for _, po := range st.orders {
			if f.Status != "" && string(po.Status) != f.Status {
				continue
			}
			if f.SupplierID != "" && po.SupplierID != f.SupplierID {
				continue
			}
			list = append(list, clonePurchaseOrder(po))
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, f.Limit, f.Offset), nil
}

// Update persiste la cabecera conservando las líneas almacenadas.
func (r *PurchaseOrderRepo) Update(_ context.Context, po *entity.PurchaseOrder) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.orders[po.ID]
		if !ok {
			return domain.ErrNotFound
		}
		next := clonePurchaseOrder(po)
		next.Items = cur.Items
		st.orders[po.ID] = next
		return nil
	})
}

func (r *PurchaseOrderRepo) ReplaceItems(_ context.Context, poID string, items []entity.PurchaseOrderItem) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.orders[poID]
		if !ok {
			return domain.ErrNotFound
		}
		if err := checkItemProducts(st, items); err != nil {
			return err
		}
		cur.Items = append([]entity.PurchaseOrderItem(nil), items...)
		return nil
	})
}

func (r *PurchaseOrderRepo) UpdateItemReceipt(_ context.Context, itemID, productID string, receivedQuantity int64) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.products[productID]; !ok {
			return domain.NewValidationError("product_id", "el producto no existe")
		}
		for _, po := range st.orders {
			for i := range po.Items {
				if po.Items[i].ID != itemID {
					continue
				}
				if po.Items[i].ProductID != "" && po.Items[i].ProductID != productID {
					return fmt.Errorf("%w: la línea %s está vinculada a otro producto", domain.ErrConflict, itemID)
				}
				if receivedQuantity < 0 || receivedQuantity > po.Items[i].Quantity {
					return fmt.Errorf("%w: cantidad recibida %d fuera de rango", domain.ErrConflict, receivedQuantity)
				}
				po.Items[i].ProductID = productID
				po.Items[i].ReceivedQuantity = receivedQuantity
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *PurchaseOrderRepo) Delete(_ context.Context, id string) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return domain.ErrNotFound
		}
		for _, rc := range st.receipts {
			if rc.PurchaseOrderID == id {
				return fmt.Errorf("%w: la orden tiene recepciones", domain.ErrConflict)
			}
		}
		delete(st.orders, id)
		return nil
	})
}

var _ repository.PurchaseReceiptRepository = (*PurchaseReceiptRepo)(nil)

// PurchaseReceiptRepo recepciones en memoria.
type PurchaseReceiptRepo struct {
	a access
}

// NewPurchaseReceiptRepository repo sobre el estado confirmado.
func NewPurchaseReceiptRepository(s *Store) *PurchaseReceiptRepo {
	return &PurchaseReceiptRepo{a: committed{s}}
}

func (r *PurchaseReceiptRepo) Create(_ context.Context, rc *entity.PurchaseReceipt) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.receipts[rc.ID]; ok {
			return fmt.Errorf("%w: recepción %s", domain.ErrDuplicate, rc.ID)
		}
		if _, ok := st.orders[rc.PurchaseOrderID]; !ok {
			return domain.ErrNotFound
		}
		st.receipts[rc.ID] = cloneReceipt(rc)
		return nil
	})
}

func (r *PurchaseReceiptRepo) GetByID(_ context.Context, id string) (*entity.PurchaseReceipt, error) {
	var out *entity.PurchaseReceipt
	r.a.read(func(st *state) {
		if rc, ok := st.receipts[id]; ok {
			out = cloneReceipt(rc)
		}
	})
	return out, nil
}

func (r *PurchaseReceiptRepo) ListByPurchaseOrder(_ context.Context, poID string) ([]*entity.PurchaseReceipt, error) {
	list := r.collect(func(rc *entity.PurchaseReceipt) bool { return rc.PurchaseOrderID == poID })
	sort.Slice(list, func(i, j int) bool { return list[i].ReceivedAt.Before(list[j].ReceivedAt) })
	return list, nil
}

func (r *PurchaseReceiptRepo) List(_ context.Context, limit, offset int) ([]*entity.PurchaseReceipt, error) {
	list := r.collect(func(*entity.PurchaseReceipt) bool { return true })
	sort.Slice(list, func(i, j int) bool { return list[i].ReceivedAt.After(list[j].ReceivedAt) })
	return page(list, limit, offset), nil
}

func (r *PurchaseReceiptRepo) collect(keep func(rc *entity.PurchaseReceipt) bool) []*entity.PurchaseReceipt {
	var list []*entity.PurchaseReceipt
	r.a.read(func(st *state) {
		for _, rc := range st.receipts {
			if keep(rc) {
				list = append(list, cloneReceipt(rc))
			}
		}
	})
	return list
}
