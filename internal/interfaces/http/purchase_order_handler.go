package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/procurement"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

// PurchaseOrderHandler órdenes de compra y sus recepciones.
type PurchaseOrderHandler struct {
	orders   *procurement.PurchaseOrderUseCase
	receipts *procurement.ReceiptUseCase
}

// NewPurchaseOrderHandler construye el handler.
func NewPurchaseOrderHandler(orders *procurement.PurchaseOrderUseCase, receipts *procurement.ReceiptUseCase) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders, receipts: receipts}
}

// Create godoc
// @Summary      Crear orden de compra
// @Description  La orden nace en draft; el total se calcula en el servidor.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Orden"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar órdenes de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "Estado"
// @Param        supplier_id  query  string  false  "Proveedor"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200          {object}  dto.PurchaseOrderListResponse
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *fiber.Ctx) error {
	p := page(c)
	out, err := h.orders.List(c.UserContext(), repository.PurchaseOrderFilter{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar orden en borrador
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID"
// @Param        body  body  dto.UpdatePurchaseOrderRequest  true  "Cambios"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePurchaseOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.Update(c.UserContext(), actorFrom(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar orden (draft o cancelled)
// @Tags         purchase-orders
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [delete]
func (h *PurchaseOrderHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.orders.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la orden
// @Description  draft→submitted|cancelled, submitted→approved(admin)|cancelled, approved→shipped.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID"
// @Param        body  body  dto.StatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/status [patch]
func (h *PurchaseOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.StatusRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.TransitionStatus(c.UserContext(), actorFrom(c), id, in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Receipts godoc
// @Summary      Recepciones de una orden
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.ReceiptListResponse
// @Router       /api/purchase-orders/{id}/receipts [get]
func (h *PurchaseOrderHandler) Receipts(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.receipts.ListByPurchaseOrder(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateReceipt godoc
// @Summary      Registrar recepción
// @Description  Concilia contra la orden, ingresa stock y recalcula el costo promedio.
// @Tags         purchase-receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReceiptRequest  true  "Recepción"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-receipts [post]
func (h *PurchaseOrderHandler) CreateReceipt(c *fiber.Ctx) error {
	var in dto.CreateReceiptRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.receipts.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetReceipt godoc
// @Summary      Obtener recepción
// @Tags         purchase-receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-receipts/{id} [get]
func (h *PurchaseOrderHandler) GetReceipt(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.receipts.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListReceipts godoc
// @Summary      Listar recepciones
// @Tags         purchase-receipts
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.ReceiptListResponse
// @Router       /api/purchase-receipts [get]
func (h *PurchaseOrderHandler) ListReceipts(c *fiber.Ctx) error {
	p := page(c)
	out, err := h.receipts.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
