package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria.
type ProductRepo struct {
	a access
}

// NewProductRepository repo sobre el estado confirmado.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{a: committed{s}}
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.ID)
		}
		for _, existing := range st.products {
			if existing.SKU == p.SKU {
				return fmt.Errorf("%w: ya existe un producto con SKU %s", domain.ErrDuplicate, p.SKU)
			}
		}
		if p.SupplierID != "" {
			if _, ok := st.suppliers[p.SupplierID]; !ok {
				return domain.NewValidationError("supplier_id", "el proveedor no existe")
			}
		}
		st.products[p.ID] = cloneProduct(p)
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	r.a.read(func(st *state) {
		if p, ok := st.products[id]; ok {
			out = cloneProduct(p)
		}
	})
	return out, nil
}

// GetForUpdate igual que GetByID: la tx en memoria ya es exclusiva.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	r.a.read(func(st *state) {
		for _, p := range st.products {
			if p.SKU == sku {
				out = cloneProduct(p)
				return
			}
		}
	})
	return out, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if p.SupplierID != "" {
			if _, ok := st.suppliers[p.SupplierID]; !ok {
				return domain.NewValidationError("supplier_id", "el proveedor no existe")
			}
		}
		for id, other := range st.products {
			if id != p.ID && other.SKU == p.SKU {
				return fmt.Errorf("%w: ya existe un producto con SKU %s", domain.ErrDuplicate, p.SKU)
			}
		}
		cur.SKU = p.SKU
		cur.ExpiryDate = cloneTime(p.ExpiryDate)
		cur.Name = p.Name
		cur.Description = p.Description
		cur.Category = p.Category
		cur.Manufacturer = p.Manufacturer
		cur.ReorderLevel = p.ReorderLevel
		cur.UnitPrice = p.UnitPrice
		cur.SupplierID = p.SupplierID
		cur.JanAushadhiCode = p.JanAushadhiCode
		cur.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (r *ProductRepo) UpdateInventory(_ context.Context, p *entity.Product) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if p.StockQuantity < 0 {
			return fmt.Errorf("%w: stock negativo para %s", domain.ErrInsufficientStock, p.SKU)
		}
		cur.StockQuantity = p.StockQuantity
		cur.Cost = p.Cost
		cur.ExpiryDate = cloneTime(p.ExpiryDate)
		cur.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	list := r.filter(func(p *entity.Product) bool {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			return false
		}
		if f.Category != "" && p.Category != f.Category {
			return false
		}
		if f.SupplierID != "" && p.SupplierID != f.SupplierID {
			return false
		}
		return true
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return page(list, f.Limit, f.Offset), nil
}

func (r *ProductRepo) ListLowStock(_ context.Context) ([]*entity.Product, error) {
	list := r.filter(func(p *entity.Product) bool { return p.IsLowStock() })
	sort.Slice(list, func(i, j int) bool {
		if list[i].StockQuantity != list[j].StockQuantity {
			return list[i].StockQuantity < list[j].StockQuantity
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (r *ProductRepo) ListExpiringBefore(_ context.Context, before time.Time) ([]*entity.Product, error) {
	list := r.filter(func(p *entity.Product) bool {
		return p.ExpiryDate != nil && p.ExpiryDate.Before(before)
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ExpiryDate.Before(*list[j].ExpiryDate) })
	return list, nil
}

func (r *ProductRepo) filter(keep func(p *entity.Product) bool) []*entity.Product {
	var list []*entity.Product
	r.a.read(func(st *state) {
		for _, p := range st.products {
			if keep(p) {
				list = append(list, cloneProduct(p))
			}
		}
	})
	return list
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.ErrNotFound
		}
		for _, m := range st.movements {
			if m.ProductID == id {
				return fmt.Errorf("%w: el producto tiene movimientos u órdenes asociadas", domain.ErrConflict)
			}
		}
		for _, po := range st.orders {
			for _, it := range po.Items {
				if it.ProductID == id {
					return fmt.Errorf("%w: el producto tiene movimientos u órdenes asociadas", domain.ErrConflict)
				}
			}
		}
		delete(st.products, id)
		return nil
	})
}
