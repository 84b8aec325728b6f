package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

const notificationColumns = `id, user_id, type, title, message, reference_id, read, created_at`

// NotificationRepo avisos sobre PostgreSQL. user_id NULL = difusión.
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador.
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create inserta un aviso.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	_, err := r.q.Exec(ctx, `INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, nullString(n.UserID), n.Type, n.Title, n.Message, n.ReferenceID, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetByID obtiene un aviso.
func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	n, err := scanNotification(r.q.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListForUser avisos del usuario más las difusiones, más recientes primero.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	l, o := pageArgs(limit, offset)
	rows, err := r.q.Query(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE (user_id = $1 OR user_id IS NULL) AND (NOT $2 OR read = FALSE)
		ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`, userID, unreadOnly, l, o)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead marca un aviso como leído.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkAllRead marca como leídos los avisos propios del usuario y las difusiones.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	cmd, err := r.q.Exec(ctx, `UPDATE notifications SET read = TRUE
		WHERE (user_id = $1 OR user_id IS NULL) AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// Delete elimina un aviso.
func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsSince indica si ya hay un aviso del tipo y referencia desde since.
func (r *NotificationRepo) ExistsSince(ctx context.Context, notifType, referenceID string, since time.Time) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM notifications WHERE type = $1 AND reference_id = $2 AND created_at >= $3)`,
		notifType, referenceID, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists notification: %w", err)
	}
	return exists, nil
}

func scanNotification(row pgx.Row) (*entity.Notification, error) {
	var (
		n      entity.Notification
		userID *string
	)
	if err := row.Scan(&n.ID, &userID, &n.Type, &n.Title, &n.Message, &n.ReferenceID, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.UserID = derefString(userID)
	return &n, nil
}
