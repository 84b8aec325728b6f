package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

var _ ports.Notifier = (*NotificationUseCase)(nil)

// NotificationUseCase avisos dentro de la aplicación. También actúa como ports.Notifier para
// el resto de casos de uso: crear un aviso nunca bloquea ni hace fallar la acción principal.
type NotificationUseCase struct {
	repo repository.NotificationRepository
	log  *logger.Logger
}

// NewNotificationUseCase construye el caso de uso.
func NewNotificationUseCase(repo repository.NotificationRepository, log *logger.Logger) *NotificationUseCase {
	return &NotificationUseCase{repo: repo, log: log}
}

// Notify persiste el aviso; los errores solo se registran.
func (uc *NotificationUseCase) Notify(ctx context.Context, n *entity.Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := uc.repo.Create(ctx, n); err != nil {
		uc.log.Warn().Err(err).Str("type", n.Type).Str("reference_id", n.ReferenceID).Msg("no se pudo crear la notificación")
	}
}

// List avisos del usuario (propios y difusiones), más recientes primero.
func (uc *NotificationUseCase) List(ctx context.Context, actor domain.Actor, unreadOnly bool, limit, offset int) (*dto.NotificationListResponse, error) {
	list, err := uc.repo.ListForUser(ctx, actor.UserID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		items = append(items, toNotificationResponse(n))
	}
	return &dto.NotificationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Count: len(items)},
	}, nil
}

// MarkRead marca un aviso como leído.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := uc.owned(ctx, actor, id); err != nil {
		return err
	}
	return uc.repo.MarkRead(ctx, id)
}

// MarkAllRead marca como leídos todos los avisos visibles para el usuario.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, actor domain.Actor) (*dto.MarkAllReadResponse, error) {
	n, err := uc.repo.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.MarkAllReadResponse{Updated: n}, nil
}

// Delete elimina un aviso. Las difusiones solo las elimina un administrador.
func (uc *NotificationUseCase) Delete(ctx context.Context, actor domain.Actor, id string) error {
	n, err := uc.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if n.UserID == "" && !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return uc.repo.Delete(ctx, id)
}

// owned devuelve el aviso si es visible para el actor.
func (uc *NotificationUseCase) owned(ctx context.Context, actor domain.Actor, id string) (*entity.Notification, error) {
	n, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil || (n.UserID != "" && n.UserID != actor.UserID) {
		return nil, domain.ErrNotFound
	}
	return n, nil
}

func toNotificationResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:          n.ID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		ReferenceID: n.ReferenceID,
		Broadcast:   n.UserID == "",
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
}
