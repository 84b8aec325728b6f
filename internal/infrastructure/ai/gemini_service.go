package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

var _ ports.AssistantService = (*GeminiService)(nil)

// GeminiService adaptador del asistente sobre la API REST generateContent de Google Gemini.
type GeminiService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiService construye el adaptador. model suele ser "gemini-1.5-flash".
func NewGeminiService(apiKey, model, baseURL string) *GeminiService {
	return &GeminiService{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  genConfig       `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *GeminiService) Provider() string { return "gemini" }

// Chat convierte el historial a turnos user/model.
func (s *GeminiService) Chat(ctx context.Context, history []dto.ChatMessageDTO, message string) (string, error) {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, h := range history {
		role := "user"
		if h.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: h.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: message}}})
	return s.generate(ctx, contents)
}

// AnalyzeImage envía la imagen inline junto con la instrucción.
func (s *GeminiService) AnalyzeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	return s.generate(ctx, []geminiContent{{
		Role: "user",
		Parts: []geminiPart{
			{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
			{Text: prompt},
		},
	}})
}

func (s *GeminiService) generate(ctx context.Context, contents []geminiContent) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY no configurado", domain.ErrUpstream)
	}
	body, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          contents,
		GenerationConfig:  genConfig{Temperature: 0.4, MaxOutputTokens: 1024},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: serializar request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, url.PathEscape(s.model), url.QueryEscape(s.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", callError("gemini", ctx.Err(), err)
	}
	defer resp.Body.Close()

	raw, err := readBody(resp)
	if err != nil {
		return "", err
	}
	var out geminiResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(raw, &out) == nil && out.Error != nil {
			return "", fmt.Errorf("%w: gemini %d: %s", domain.ErrUpstream, out.Error.Code, out.Error.Message)
		}
		return "", fmt.Errorf("%w: gemini HTTP %d", domain.ErrUpstream, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: gemini: respuesta ilegible: %v", domain.ErrUpstream, err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini devolvió respuesta vacía", domain.ErrUpstream)
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	reply := cleanReply(b.String())
	if reply == "" {
		return "", fmt.Errorf("%w: gemini devolvió respuesta vacía", domain.ErrUpstream)
	}
	return reply, nil
}
