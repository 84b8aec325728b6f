package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
)

// JanAushadhiHandler catálogo externo de genéricos.
type JanAushadhiHandler struct {
	uc *usecase.JanAushadhiUseCase
}

// NewJanAushadhiHandler construye el handler.
func NewJanAushadhiHandler(uc *usecase.JanAushadhiUseCase) *JanAushadhiHandler {
	return &JanAushadhiHandler{uc: uc}
}

// Search godoc
// @Summary      Buscar en el catálogo JanAushadhi
// @Tags         janaushadhi
// @Security     Bearer
// @Produce      json
// @Param        search  query  string  true  "Texto (mínimo 2 caracteres)"
// @Success      200     {object}  dto.JanAushadhiSearchResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      502     {object}  dto.ErrorResponse
// @Router       /api/janaushadhi/products [get]
func (h *JanAushadhiHandler) Search(c *fiber.Ctx) error {
	out, err := h.uc.Search(c.UserContext(), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Import godoc
// @Summary      Importar producto del catálogo
// @Tags         janaushadhi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.JanAushadhiImportRequest  true  "drug_code"
// @Success      201   {object}  dto.ProductResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/janaushadhi/import [post]
func (h *JanAushadhiHandler) Import(c *fiber.Ctx) error {
	var in dto.JanAushadhiImportRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Import(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
