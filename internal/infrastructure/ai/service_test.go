package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/ai"
	"github.com/jhoicas/Apothecary-api/pkg/config"
)

// -----------------------------------------------------------------------------
// Anthropic
// -----------------------------------------------------------------------------

func TestAnthropic_ChatEnviaHistorial(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "clave", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"  Guardar entre 15 y 25 °C. "}]}`))
	}))
	defer srv.Close()

	svc := ai.NewAnthropicService("clave", "claude-test", srv.URL+"/")
	reply, err := svc.Chat(context.Background(), []dto.ChatMessageDTO{
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "¿en qué ayudo?"},
	}, "¿cómo conservo la amoxicilina?")
	require.NoError(t, err)
	assert.Equal(t, "Guardar entre 15 y 25 °C.", reply)
	assert.Equal(t, "anthropic", svc.Provider())

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 3)
	assert.Equal(t, "claude-test", got["model"])
}

func TestAnthropic_ErrorDelProveedor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"demasiadas solicitudes"}}`))
	}))
	defer srv.Close()

	_, err := ai.NewAnthropicService("clave", "m", srv.URL).AnalyzeImage(context.Background(), []byte{1, 2}, "image/png", "describe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Contains(t, err.Error(), "rate_limit_error")
}

func TestAnthropic_SinAPIKey(t *testing.T) {
	_, err := ai.NewAnthropicService("", "m", "http://127.0.0.1:1").Chat(context.Background(), nil, "hola")
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

// -----------------------------------------------------------------------------
// Gemini
// -----------------------------------------------------------------------------

func TestGemini_AnalyzeImageEnviaInlineData(t *testing.T) {
	var got struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mime_type"`
					Data     string `json:"data"`
				} `json:"inline_data"`
			} `json:"parts"`
		} `json:"contents"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "clave", r.URL.Query().Get("key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Paracetamol 500 mg, lote A12"}]}}]}`))
	}))
	defer srv.Close()

	svc := ai.NewGeminiService("clave", "gemini-test", srv.URL)
	reply, err := svc.AnalyzeImage(context.Background(), []byte("png"), "image/png", "identifica")
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol 500 mg, lote A12", reply)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	require.NotNil(t, got.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "image/png", got.Contents[0].Parts[0].InlineData.MimeType)
	assert.Equal(t, "cG5n", got.Contents[0].Parts[0].InlineData.Data)
}

func TestGemini_HistorialUsaRolModel(t *testing.T) {
	var roles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []struct {
				Role string `json:"role"`
			} `json:"contents"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, c := range body.Contents {
			roles = append(roles, c.Role)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	_, err := ai.NewGeminiService("k", "m", srv.URL).Chat(context.Background(),
		[]dto.ChatMessageDTO{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}}, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "model", "user"}, roles)
}

func TestGemini_RespuestaVacia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := ai.NewGeminiService("k", "m", srv.URL).Chat(context.Background(), nil, "hola")
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestNewAssistant_EligeProveedor(t *testing.T) {
	a, err := ai.NewAssistant(config.AIConfig{Provider: "Anthropic"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", a.Provider())

	g, err := ai.NewAssistant(config.AIConfig{})
	require.NoError(t, err)
	assert.Equal(t, "gemini", g.Provider())

	_, err = ai.NewAssistant(config.AIConfig{Provider: "otro"})
	assert.Error(t, err)
}
