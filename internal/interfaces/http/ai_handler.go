package http

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

// AIHandler endpoints del asistente MaoMao AI.
type AIHandler struct {
	uc *usecase.AIUseCase
}

// NewAIHandler construye el handler.
func NewAIHandler(uc *usecase.AIUseCase) *AIHandler {
	return &AIHandler{uc: uc}
}

// Chat godoc
// @Summary      Conversar con MaoMao AI
// @Description  Asistente de farmacia. Acepta hasta 20 turnos previos.
// @Tags         ai
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ChatRequest  true  "message e historial"
// @Success      200   {object}  dto.ChatResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/ai/chat [post]
func (h *AIHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Chat(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AnalyzeImage godoc
// @Summary      Analizar imagen (etiqueta, caja o receta)
// @Description  JSON con image_base64 o multipart con el campo "image" y "prompt" opcional.
// @Tags         ai
// @Security     Bearer
// @Accept       json,mpfd
// @Produce      json
// @Param        body  body  dto.AnalyzeImageRequest  false  "Imagen en base64"
// @Success      200   {object}  dto.AnalyzeImageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/ai/analyze-image [post]
func (h *AIHandler) AnalyzeImage(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return h.analyzeUpload(c)
	}
	var req dto.AnalyzeImageRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AnalyzeImage(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *AIHandler) analyzeUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return writeError(c, domain.NewValidationError("image", "es obligatorio"))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AnalyzeImageBytes(c.UserContext(), raw, fh.Header.Get(fiber.HeaderContentType), c.FormValue("prompt"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
