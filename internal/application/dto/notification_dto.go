package dto

import "time"

// NotificationResponse aviso para el usuario autenticado.
type NotificationResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	ReferenceID string    `json:"reference_id,omitempty"`
	Broadcast   bool      `json:"broadcast"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationListResponse lista de avisos.
type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}

// MarkAllReadResponse cantidad de avisos marcados como leídos.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
