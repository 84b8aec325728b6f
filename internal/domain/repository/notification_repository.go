package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

// NotificationRepository persiste avisos. Las consultas por usuario incluyen las difusiones (user_id vacío).
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
	// ExistsSince indica si ya hay un aviso del tipo para la referencia desde since (deduplicación).
	ExistsSince(ctx context.Context, notifType, referenceID string, since time.Time) (bool, error)
}
