package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

var _ ports.AssistantService = (*AnthropicService)(nil)

const anthropicVersion = "2023-06-01"

// AnthropicService adaptador del asistente sobre la API Messages de Anthropic (Claude).
type AnthropicService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicService construye el adaptador. baseURL suele ser https://api.anthropic.com.
// Si apiKey está vacío las llamadas devuelven ErrUpstream en lugar de fallar al arrancar.
func NewAnthropicService(apiKey, model, baseURL string) *AnthropicService {
	return &AnthropicService{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *AnthropicService) Provider() string { return "anthropic" }

// Chat envía el historial y el mensaje nuevo.
func (s *AnthropicService) Chat(ctx context.Context, history []dto.ChatMessageDTO, message string) (string, error) {
	msgs := make([]anthropicMessage, 0, len(history)+1)
	for _, h := range history {
		msgs = append(msgs, anthropicMessage{Role: h.Role, Content: []anthropicBlock{{Type: "text", Text: h.Content}}})
	}
	msgs = append(msgs, anthropicMessage{Role: "user", Content: []anthropicBlock{{Type: "text", Text: message}}})
	return s.send(ctx, msgs)
}

// AnalyzeImage envía la imagen como bloque base64 junto con la instrucción.
func (s *AnthropicService) AnalyzeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	return s.send(ctx, []anthropicMessage{{
		Role: "user",
		Content: []anthropicBlock{
			{Type: "image", Source: &anthropicSource{Type: "base64", MediaType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
			{Type: "text", Text: prompt},
		},
	}})
}

func (s *AnthropicService) send(ctx context.Context, msgs []anthropicMessage) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: ANTHROPIC_API_KEY no configurado", domain.ErrUpstream)
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     s.model,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages:  msgs,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: serializar request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: crear request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", callError("anthropic", ctx.Err(), err)
	}
	defer resp.Body.Close()

	raw, err := readBody(resp)
	if err != nil {
		return "", err
	}
	var out anthropicResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(raw, &out) == nil && out.Error != nil {
			return "", fmt.Errorf("%w: anthropic (%s): %s", domain.ErrUpstream, out.Error.Type, out.Error.Message)
		}
		return "", fmt.Errorf("%w: anthropic HTTP %d", domain.ErrUpstream, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: anthropic: respuesta ilegible: %v", domain.ErrUpstream, err)
	}
	var b strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	reply := cleanReply(b.String())
	if reply == "" {
		return "", fmt.Errorf("%w: anthropic devolvió respuesta vacía", domain.ErrUpstream)
	}
	return reply, nil
}
