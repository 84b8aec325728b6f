package dto

// ChatMessageDTO turno previo de la conversación con el asistente.
type ChatMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

// ChatRequest mensaje para MaoMao AI.
type ChatRequest struct {
	Message string           `json:"message" validate:"required,min=1,max=4000"`
	History []ChatMessageDTO `json:"history" validate:"max=20,dive"`
}

// ChatResponse respuesta del asistente.
type ChatResponse struct {
	Reply    string `json:"reply"`
	Provider string `json:"provider"`
}

// AnalyzeImageRequest imagen (base64) a analizar: etiqueta, caja o receta.
type AnalyzeImageRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required,base64"`
	MimeType    string `json:"mime_type" validate:"required,oneof=image/jpeg image/png image/webp"`
	Prompt      string `json:"prompt" validate:"max=1000"`
}

// AnalyzeImageResponse descripción devuelta por el modelo de visión.
type AnalyzeImageResponse struct {
	Analysis string `json:"analysis"`
	Provider string `json:"provider"`
}
