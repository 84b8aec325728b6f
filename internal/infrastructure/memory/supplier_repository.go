package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo proveedores en memoria.
type SupplierRepo struct {
	a access
}

// NewSupplierRepository repo sobre el estado confirmado.
func NewSupplierRepository(s *Store) *SupplierRepo {
	return &SupplierRepo{a: committed{s}}
}

func (r *SupplierRepo) Create(_ context.Context, s *entity.Supplier) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.suppliers[s.ID]; ok {
			return fmt.Errorf("%w: proveedor %s", domain.ErrDuplicate, s.ID)
		}
		st.suppliers[s.ID] = cloneSupplier(s)
		return nil
	})
}

func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	var out *entity.Supplier
	r.a.read(func(st *state) {
		if s, ok := st.suppliers[id]; ok {
			out = cloneSupplier(s)
		}
	})
	return out, nil
}

func (r *SupplierRepo) Update(_ context.Context, s *entity.Supplier) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.suppliers[s.ID]; !ok {
			return domain.ErrNotFound
		}
		st.suppliers[s.ID] = cloneSupplier(s)
		return nil
	})
}

func (r *SupplierRepo) List(_ context.Context, f repository.SupplierFilter) ([]*entity.Supplier, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var list []*entity.Supplier
	r.a.read(func(st *state) {
		for _, s := range st.suppliers {
			if search != "" && !strings.Contains(strings.ToLower(s.Name), search) &&
				!strings.Contains(strings.ToLower(s.ContactPerson), search) {
				continue
			}
			if f.Status != "" && s.Status != f.Status {
				continue
			}
			if f.JanAushadhi != nil && s.IsJanAushadhi != *f.JanAushadhi {
				continue
			}
			list = append(list, cloneSupplier(s))
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return page(list, f.Limit, f.Offset), nil
}

// Delete con órdenes asociadas devuelve ErrConflict; los productos quedan sin proveedor.
func (r *SupplierRepo) Delete(_ context.Context, id string) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.suppliers[id]; !ok {
			return domain.ErrNotFound
		}
		for _, po := range st.orders {
			if po.SupplierID == id {
				return fmt.Errorf("%w: el proveedor tiene órdenes de compra", domain.ErrConflict)
			}
		}
		for _, p := range st.products {
			if p.SupplierID == id {
				p.SupplierID = ""
			}
		}
		delete(st.suppliers, id)
		return nil
	})
}
