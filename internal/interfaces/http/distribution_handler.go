package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Apothecary-api/internal/application/distribution"
	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

// DistributionHandler despachos a farmacias, hospitales, clínicas y pacientes.
type DistributionHandler struct {
	uc *distribution.UseCase
}

// NewDistributionHandler construye el handler.
func NewDistributionHandler(uc *distribution.UseCase) *DistributionHandler {
	return &DistributionHandler{uc: uc}
}

// Create godoc
// @Summary      Crear distribución
// @Description  Descuenta el stock de todas las líneas o de ninguna.
// @Tags         distributions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDistributionRequest  true  "Distribución"
// @Success      201   {object}  dto.DistributionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/distributions [post]
func (h *DistributionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDistributionRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener distribución
// @Tags         distributions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.DistributionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/distributions/{id} [get]
func (h *DistributionHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar distribuciones
// @Tags         distributions
// @Security     Bearer
// @Produce      json
// @Param        status          query  string  false  "Estado"
// @Param        recipient_type  query  string  false  "pharmacy | hospital | clinic | patient"
// @Param        limit           query  int     false  "Límite"  default(20)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200             {object}  dto.DistributionListResponse
// @Router       /api/distributions [get]
func (h *DistributionHandler) List(c *fiber.Ctx) error {
	p := page(c)
	out, err := h.uc.List(c.UserContext(), repository.DistributionFilter{
		Status:        c.Query("status"),
		RecipientType: c.Query("recipient_type"),
		Limit:         p.Limit,
		Offset:        p.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la distribución
// @Description  returned y cancelled reingresan el stock despachado.
// @Tags         distributions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID"
// @Param        body  body  dto.StatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.DistributionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/distributions/{id}/status [patch]
func (h *DistributionHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.StatusRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Transition(c.UserContext(), actorFrom(c), id, in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
