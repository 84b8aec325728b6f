package ports

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
)

// AssistantService puerto de salida del asistente MaoMao AI.
// Cualquier adaptador (Gemini, Anthropic, mock) debe implementar esta interfaz.
// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
type AssistantService interface {
	// Provider nombre del proveedor para trazas y respuestas.
	Provider() string
	// Chat responde a message teniendo en cuenta los turnos previos.
	Chat(ctx context.Context, history []dto.ChatMessageDTO, message string) (string, error)
	// AnalyzeImage describe una imagen (etiqueta, caja de medicamento, receta).
	AnalyzeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}
