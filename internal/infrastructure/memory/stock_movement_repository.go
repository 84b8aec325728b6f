package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos en memoria; el slice conserva el orden de inserción.
type StockMovementRepo struct {
	a access
}

// NewStockMovementRepository repo sobre el estado confirmado.
func NewStockMovementRepository(s *Store) *StockMovementRepo {
	return &StockMovementRepo{a: committed{s}}
}

func (r *StockMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.products[m.ProductID]; !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, m.ProductID)
		}
		st.movements = append(st.movements, cloneMovement(m))
		return nil
	})
}

func (r *StockMovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	r.a.read(func(st *state) {
		for _, m := range st.movements {
			if m.ID == id {
				out = cloneMovement(m)
				return
			}
		}
	})
	return out, nil
}

// List más recientes primero.
func (r *StockMovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	r.a.read(func(st *state) {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.Type != "" && m.Type != f.Type {
				continue
			}
			if f.Source != "" && m.Source != f.Source {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && m.CreatedAt.After(*f.To) {
				continue
			}
			list = append(list, cloneMovement(m))
		}
	})
	return page(list, f.Limit, f.Offset), nil
}

func (r *StockMovementRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	r.a.read(func(st *state) {
		for _, m := range st.movements {
			if m.ProductID == productID {
				list = append(list, cloneMovement(m))
			}
		}
	})
	return list, nil
}
