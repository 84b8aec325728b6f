package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/memory"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

var (
	ana   = domain.Actor{UserID: "aaaaaaaa-0000-0000-0000-000000000001", Role: entity.RoleStaff}
	beto  = domain.Actor{UserID: "aaaaaaaa-0000-0000-0000-000000000002", Role: entity.RoleStaff}
	admin = domain.Actor{UserID: "aaaaaaaa-0000-0000-0000-000000000003", Role: entity.RoleAdmin}
)

func TestNotifications_VisibilidadYPropiedad(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewNotificationUseCase(memory.NewNotificationRepository(memory.NewStore()), logger.Nop())

	own := &entity.Notification{UserID: ana.UserID, Type: entity.NotificationPurchaseOrder, Title: "Orden aprobada"}
	broadcast := &entity.Notification{Type: entity.NotificationLowStock, Title: "Stock bajo"}
	uc.Notify(ctx, own)
	uc.Notify(ctx, broadcast)
	require.NotEmpty(t, own.ID)

	forAna, err := uc.List(ctx, ana, false, 0, 0)
	require.NoError(t, err)
	assert.Len(t, forAna.Items, 2)
	forBeto, err := uc.List(ctx, beto, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, forBeto.Items, 1)
	assert.Equal(t, broadcast.ID, forBeto.Items[0].ID)

	// Un aviso ajeno se comporta como inexistente.
	assert.True(t, errors.Is(uc.MarkRead(ctx, beto, own.ID), domain.ErrNotFound))
	assert.True(t, errors.Is(uc.Delete(ctx, beto, own.ID), domain.ErrNotFound))

	// Las difusiones solo las borra un administrador.
	assert.True(t, errors.Is(uc.Delete(ctx, beto, broadcast.ID), domain.ErrForbidden))

	require.NoError(t, uc.MarkRead(ctx, ana, own.ID))
	unread, err := uc.List(ctx, ana, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, unread.Items, 1)
	assert.Equal(t, broadcast.ID, unread.Items[0].ID)

	res, err := uc.MarkAllRead(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Updated)

	require.NoError(t, uc.Delete(ctx, admin, broadcast.ID))
	forBeto, err = uc.List(ctx, beto, false, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, forBeto.Items)
}
