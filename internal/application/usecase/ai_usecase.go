package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

// maxImageBytes tamaño máximo aceptado para análisis de imágenes.
const maxImageBytes = 5 << 20

// AIUseCase orquesta el asistente MaoMao AI.
// Aplica un timeout por llamada para que la latencia externa no bloquee los goroutines del servidor.
type AIUseCase struct {
	assistant ports.AssistantService
	timeout   time.Duration
}

// NewAIUseCase construye el caso de uso inyectando el puerto AssistantService.
func NewAIUseCase(assistant ports.AssistantService) *AIUseCase {
	return &AIUseCase{assistant: assistant, timeout: 30 * time.Second}
}

// Chat valida la entrada y delega al proveedor configurado.
func (uc *AIUseCase) Chat(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, domain.NewValidationError("message", "es obligatorio")
	}
	for i, h := range req.History {
		if h.Role != "user" && h.Role != "assistant" {
			return nil, domain.NewValidationError(fmt.Sprintf("history[%d].role", i), "debe ser user o assistant")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	reply, err := uc.assistant.Chat(ctx, req.History, msg)
	if err != nil {
		return nil, fmt.Errorf("asistente IA: %w", err)
	}
	return &dto.ChatResponse{Reply: reply, Provider: uc.assistant.Provider()}, nil
}

// AnalyzeImage decodifica la imagen (base64) y la envía al modelo de visión.
func (uc *AIUseCase) AnalyzeImage(ctx context.Context, req dto.AnalyzeImageRequest) (*dto.AnalyzeImageResponse, error) {
	raw, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(raw) == 0 {
		return nil, domain.NewValidationError("image_base64", "imagen inválida")
	}
	return uc.AnalyzeImageBytes(ctx, raw, req.MimeType, req.Prompt)
}

// AnalyzeImageBytes analiza una imagen ya decodificada (subida multipart).
func (uc *AIUseCase) AnalyzeImageBytes(ctx context.Context, image []byte, mimeType, prompt string) (*dto.AnalyzeImageResponse, error) {
	switch mimeType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		return nil, domain.NewValidationError("mime_type", "debe ser image/jpeg, image/png o image/webp")
	}
	if len(image) == 0 {
		return nil, domain.NewValidationError("image", "es obligatoria")
	}
	if len(image) > maxImageBytes {
		return nil, domain.NewValidationError("image", "supera el tamaño máximo de 5 MB")
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = "Identifica el medicamento de la imagen: nombre, principio activo, concentración, lote y fecha de vencimiento si son visibles."
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	analysis, err := uc.assistant.AnalyzeImage(ctx, image, mimeType, prompt)
	if err != nil {
		return nil, fmt.Errorf("análisis de imagen: %w", err)
	}
	return &dto.AnalyzeImageResponse{Analysis: analysis, Provider: uc.assistant.Provider()}, nil
}
