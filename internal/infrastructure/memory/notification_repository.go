package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo avisos en memoria.
type NotificationRepo struct {
	a access
}

// NewNotificationRepository repo sobre el estado confirmado.
func NewNotificationRepository(s *Store) *NotificationRepo {
	return &NotificationRepo{a: committed{s}}
}

func (r *NotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	return r.a.write(func(st *state) error {
		st.notifications[n.ID] = cloneNotification(n)
		return nil
	})
}

func (r *NotificationRepo) GetByID(_ context.Context, id string) (*entity.Notification, error) {
	var out *entity.Notification
	r.a.read(func(st *state) {
		if n, ok := st.notifications[id]; ok {
			out = cloneNotification(n)
		}
	})
	return out, nil
}

func (r *NotificationRepo) ListForUser(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	var list []*entity.Notification
	r.a.read(func(st *state) {
		for _, n := range st.notifications {
			if n.UserID != userID && n.UserID != "" {
				continue
			}
			if unreadOnly && n.Read {
				continue
			}
			list = append(list, cloneNotification(n))
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, offset), nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, id string) error {
	return r.a.write(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok {
			return domain.ErrNotFound
		}
		n.Read = true
		return nil
	})
}

func (r *NotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var updated int64
	err := r.a.write(func(st *state) error {
		for _, n := range st.notifications {
			if (n.UserID == userID || n.UserID == "") && !n.Read {
				n.Read = true
				updated++
			}
		}
		return nil
	})
	return updated, err
}

func (r *NotificationRepo) Delete(_ context.Context, id string) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.notifications[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.notifications, id)
		return nil
	})
}

func (r *NotificationRepo) ExistsSince(_ context.Context, notifType, referenceID string, since time.Time) (bool, error) {
	var found bool
	r.a.read(func(st *state) {
		for _, n := range st.notifications {
			if n.Type == notifType && n.ReferenceID == referenceID && !n.CreatedAt.Before(since) {
				found = true
				return
			}
		}
	})
	return found, nil
}
