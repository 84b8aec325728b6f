package ai

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/domain"
)

// systemPrompt define el rol de MaoMao AI para ambos proveedores.
const systemPrompt = `Eres MaoMao, asistente de una farmacia y almacén de medicamentos.
Responde en español, de forma breve y precisa.
Ayudas con: información general de medicamentos (principio activo, presentación, conservación),
interpretación de etiquetas y lotes, gestión de inventario, vencimientos y reposición.
No das diagnósticos ni reemplazas la indicación de un profesional de salud; si la consulta es clínica,
recomienda consultar a un médico o farmacéutico.`

// maxResponseBytes límite de lectura del cuerpo de respuesta.
const maxResponseBytes = 256 * 1024

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 45 * time.Second}
}

// readBody lee la respuesta acotada.
func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrUpstream, err)
	}
	return raw, nil
}

// callError traduce un fallo de red a ErrUpstream respetando la cancelación del contexto.
func callError(provider string, ctxErr, err error) error {
	if ctxErr != nil {
		return fmt.Errorf("%w: %s: timeout o cancelación: %v", domain.ErrUpstream, provider, ctxErr)
	}
	return fmt.Errorf("%w: %s: llamada HTTP fallida: %v", domain.ErrUpstream, provider, err)
}

func cleanReply(s string) string {
	return strings.TrimSpace(s)
}
