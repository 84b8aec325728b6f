package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria.
type UserRepo struct {
	a access
}

// NewUserRepository repo sobre el estado confirmado.
func NewUserRepository(s *Store) *UserRepo {
	return &UserRepo{a: committed{s}}
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	return r.a.write(func(st *state) error {
		for _, existing := range st.users {
			if existing.Email == u.Email {
				return domain.ErrEmailAlreadyExists
			}
		}
		st.users[u.ID] = cloneUser(u)
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id }), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r *UserRepo) GetByProvider(_ context.Context, provider, providerID string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Provider == provider && u.ProviderID == providerID }), nil
}

func (r *UserRepo) find(match func(u *entity.User) bool) *entity.User {
	var out *entity.User
	r.a.read(func(st *state) {
		for _, u := range st.users {
			if match(u) {
				out = cloneUser(u)
				return
			}
		}
	})
	return out
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return domain.ErrUserNotFound
		}
		st.users[u.ID] = cloneUser(u)
		return nil
	})
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	return page(r.sorted(func(*entity.User) bool { return true }), limit, offset), nil
}

func (r *UserRepo) ListByRole(_ context.Context, role string) ([]*entity.User, error) {
	return r.sorted(func(u *entity.User) bool { return u.Role == role }), nil
}

func (r *UserRepo) sorted(keep func(u *entity.User) bool) []*entity.User {
	var list []*entity.User
	r.a.read(func(st *state) {
		for _, u := range st.users {
			if keep(u) {
				list = append(list, cloneUser(u))
			}
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}
