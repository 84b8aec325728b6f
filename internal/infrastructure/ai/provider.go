package ai

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/pkg/config"
)

// NewAssistant elige el adaptador según AI_PROVIDER.
func NewAssistant(cfg config.AIConfig) (ports.AssistantService, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		return NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL), nil
	case "anthropic", "claude":
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL), nil
	default:
		return nil, fmt.Errorf("AI_PROVIDER desconocido: %q (gemini | anthropic)", cfg.Provider)
	}
}
