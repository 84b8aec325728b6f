package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
)

// NotificationHandler avisos del usuario autenticado.
type NotificationHandler struct {
	uc *usecase.NotificationUseCase
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(uc *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

// List godoc
// @Summary      Listar avisos
// @Description  Avisos propios y globales, más recientes primero.
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        unread  query  bool  false  "Solo no leídos"
// @Param        limit   query  int   false  "Límite"  default(20)
// @Param        offset  query  int   false  "Offset"  default(0)
// @Success      200     {object}  dto.NotificationListResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	p := page(c)
	out, err := h.uc.List(c.UserContext(), actorFrom(c), c.QueryBool("unread", false), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MarkRead godoc
// @Summary      Marcar aviso como leído
// @Tags         notifications
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.MarkRead(c.UserContext(), actorFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead godoc
// @Summary      Marcar todos como leídos
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MarkAllReadResponse
// @Router       /api/notifications/read-all [patch]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	out, err := h.uc.MarkAllRead(c.UserContext(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar aviso
// @Description  Los avisos globales solo los elimina un admin.
// @Tags         notifications
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
