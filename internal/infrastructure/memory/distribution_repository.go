package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.DistributionRepository = (*DistributionRepo)(nil)

// DistributionRepo distribuciones en memoria.
type DistributionRepo struct {
	a access
}

// NewDistributionRepository repo sobre el estado confirmado.
func NewDistributionRepository(s *Store) *DistributionRepo {
	return &DistributionRepo{a: committed{s}}
}

func (r *DistributionRepo) Create(_ context.Context, d *entity.DistributionOrder) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.distributions[d.ID]; ok {
			return fmt.Errorf("%w: distribución %s", domain.ErrDuplicate, d.ID)
		}
		st.distributions[d.ID] = cloneDistribution(d)
		return nil
	})
}

func (r *DistributionRepo) GetByID(_ context.Context, id string) (*entity.DistributionOrder, error) {
	var out *entity.DistributionOrder
	r.a.read(func(st *state) {
		if d, ok := st.distributions[id]; ok {
			out = cloneDistribution(d)
		}
	})
	return out, nil
}

func (r *DistributionRepo) GetForUpdate(ctx context.Context, id string) (*entity.DistributionOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *DistributionRepo) List(_ context.Context, f repository.DistributionFilter) ([]*entity.DistributionOrder, error) {
	var list []*entity.DistributionOrder
	r.a.read(func(st *state) {
		for _, d := range st.distributions {
			if f.Status != "" && string(d.Status) != f.Status {
				continue
			}
			if f.RecipientType != "" && d.RecipientType != f.RecipientType {
				continue
			}
			list = append(list, cloneDistribution(d))
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

func (r *DistributionRepo) UpdateStatus(_ context.Context, d *entity.DistributionOrder) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.distributions[d.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Status = d.Status
		cur.UpdatedAt = d.UpdatedAt
		return nil
	})
}
